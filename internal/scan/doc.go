// Package scan computes the cosine similarity of a query against every row
// of a table.
//
// Rows are split into contiguous chunks which are scored concurrently by an
// errgroup limited to the configured worker count. Each chunk writes only
// its own output slots, so the only synchronization is the final join.
package scan
