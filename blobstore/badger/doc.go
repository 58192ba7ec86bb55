// Package badger provides a blobstore.Store backed by an embedded Badger
// key-value database.
//
// Each blob is stored as one value under the key "blob/<name>". Writes are
// single transactions, so a Put is atomic.
//
//	store, err := badger.Open(badger.Options{Dir: "./model.db"})
//	defer store.Close()
//	err = vm.Save(ctx, store)
package badger
