package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/blobstore/storetest"
)

func TestStore_Memory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)
}

func TestStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "en/vectors.bin", []byte{1, 2, 3, 4}))
	require.NoError(t, store.Put(ctx, "de/vectors.bin", []byte{5}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	en := blobstore.WithPrefix(store, "en")
	data, err := en.Get(ctx, "vectors.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	size, err := store.Size(ctx, "en/")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"de/vectors.bin", "en/vectors.bin"}, names)
}
