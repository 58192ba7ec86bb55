// Package cache memoizes top-k query results.
//
// Keys are 64-bit maphash digests of the full query vector. An entry is a
// hit only when the requested result count matches and the stored query is
// byte-identical, so a digest collision degrades to a miss instead of
// returning another query's neighbors.
//
// Entries are never evicted. Growth can be bounded with a
// resource.Controller: an entry that would exceed the memory limit is not
// admitted.
package cache
