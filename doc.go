// Package vecscan provides an in-memory exhaustive nearest-neighbor engine
// for dense float32 vectors ranked by cosine similarity.
//
// Every query scores the whole table with SIMD dot-product kernels, spreads
// the work over a bounded number of goroutines and keeps the best n rows in
// a bounded heap. Repeated queries are answered from a per-table result
// cache.
//
// # Quick Start
//
//	tbl, _ := vecscan.New(300)
//	idx, _ := tbl.Add(vec)
//	res, _ := tbl.Query(query, 10)
//	for i, row := range res.Indices {
//	    fmt.Println(row, res.Scores[i])
//	}
//
// # Keyed Vectors
//
// VectorMap associates string keys and frequencies with the rows of a Table
// and persists all three to a blobstore.Store:
//
//	vm, _ := vecscan.NewVectorMap(300, vecscan.WithCompression(persistence.CompressionZSTD))
//	_ = vm.Add("duck|NOUN", 1042, vec)
//	keys, scores, _ := vm.MostSimilar(vec, 10)
//	_ = vm.Save(ctx, blobstore.NewLocalStore("./model"))
//
// # Index Zero
//
// Row 0 of every table is an all-zero sentinel with norm 0. It scores NaN
// against any query, is never selected, and key ids start at 1 so that a
// key's id equals the row that holds its vector.
//
// # Concurrency
//
// Queries may run concurrently with each other. Add, Borrow and Load must
// not run concurrently with anything else on the same table.
package vecscan
