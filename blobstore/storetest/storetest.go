// Package storetest provides a conformance test for blobstore.Store
// implementations.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/blobstore"
)

// Run exercises the Store contract against an empty store.
func Run(t *testing.T, store blobstore.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing.bin")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "vectors.bin", []byte("first")))
	require.NoError(t, store.Put(ctx, "vectors.bin", []byte("second")))
	require.NoError(t, store.Put(ctx, "strings.json", []byte(`["a"]`)))
	require.NoError(t, store.Put(ctx, "nested/freqs.json", []byte(`[]`)))
	require.NoError(t, store.Put(ctx, "empty.bin", nil))

	got, err := store.Get(ctx, "vectors.bin")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	got, err = store.Get(ctx, "empty.bin")
	require.NoError(t, err)
	assert.Empty(t, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"empty.bin", "nested/freqs.json", "strings.json", "vectors.bin"}, names)

	names, err = store.List(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"strings.json"}, names)

	require.NoError(t, store.Delete(ctx, "vectors.bin"))
	require.NoError(t, store.Delete(ctx, "vectors.bin"))
	_, err = store.Get(ctx, "vectors.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Returned data must not alias store memory.
	got, err = store.Get(ctx, "strings.json")
	require.NoError(t, err)
	got[0] = 'X'
	again, err := store.Get(ctx, "strings.json")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(again))
}
