// Package blobstore provides named-blob storage for persisted vector maps.
//
// Store is the interface VectorMap.Save and VectorMap.Load use to write and
// read their blobs (strings.json, vectors.bin and freqs.json).
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local filesystem
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 (aws-sdk-go-v2)
//   - minio.Store: MinIO and other S3-compatible storage
//   - badger.Store: an embedded Badger key-value database
//   - sqlite.Store: a table in a SQLite database
//
// # Custom Implementations
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)   // ErrNotFound if missing
//	    Put(ctx, name, data) error       // atomic replace
//	    Delete(ctx, name) error          // no error if missing
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
