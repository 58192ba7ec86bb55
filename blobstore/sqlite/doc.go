// Package sqlite provides a blobstore.Store that keeps blobs in a table of a
// SQLite database, using the pure-Go modernc.org/sqlite driver.
//
//	store, err := sqlite.Open(ctx, "./models.db")
//	defer store.Close()
//	err = vm.Save(ctx, blobstore.WithPrefix(store, "en"))
package sqlite
