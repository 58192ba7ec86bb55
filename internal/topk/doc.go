// Package topk reduces a dense score vector to the best n (index, score)
// pairs using a bounded min-heap.
//
// Admission is strictly greater than a running cutoff. The cutoff starts at
// zero, so non-positive and NaN scores are never returned, and it rises to
// the smallest retained score once the heap holds n items.
package topk
