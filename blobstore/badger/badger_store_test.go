package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/blobstore/storetest"
)

func TestStore_InMemory(t *testing.T) {
	store, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)
}

func TestStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "vectors.bin", []byte{1, 2, 3}))
	require.NoError(t, store.Close())

	store, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer store.Close()

	data, err := store.Get(ctx, "vectors.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
}
