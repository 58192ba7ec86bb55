package blobstore

import (
	"context"
	"errors"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that are empty or would escape
// the store's namespace.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// Store reads and writes whole named blobs.
type Store interface {
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob, replacing any previous content atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
