package vecscan

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/codec"
	"github.com/hupe1980/vecscan/persistence"
	"github.com/hupe1980/vecscan/testutil"
)

func newScenarioMap(t *testing.T, optFns ...Option) *VectorMap {
	t.Helper()

	m, err := NewVectorMap(4, optFns...)
	require.NoError(t, err)

	require.NoError(t, m.Add("east", 10, []float32{1, 0, 0, 0}))
	require.NoError(t, m.Add("north", 0, []float32{0, 1, 0, 0}))
	require.NoError(t, m.Add("northeast", 3, []float32{0.6, 0.8, 0, 0}))
	return m
}

func TestVectorMap(t *testing.T) {
	t.Run("AddAndGet", func(t *testing.T) {
		m := newScenarioMap(t)

		assert.Equal(t, 3, m.Len())
		assert.Equal(t, 4, m.Table().Len())
		assert.True(t, m.Contains("east"))
		assert.False(t, m.Contains("west"))

		freq, vec, err := m.Get("northeast")
		require.NoError(t, err)
		assert.Equal(t, uint32(3), freq)
		assert.Equal(t, []float32{0.6, 0.8, 0, 0}, vec)
	})

	t.Run("GetZeroFrequency", func(t *testing.T) {
		m := newScenarioMap(t)

		assert.True(t, m.Contains("north"))
		_, _, err := m.Get("north")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		m := newScenarioMap(t)

		_, _, err := m.Get("west")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		m := newScenarioMap(t)

		err := m.Add("east", 1, []float32{0, 0, 1, 0})
		require.ErrorIs(t, err, ErrKeyExists)
		assert.Equal(t, 3, m.Len())
		assert.Equal(t, 4, m.Table().Len())
		assert.Equal(t, uint32(10), m.Freq("east"))
	})

	t.Run("DimensionMismatchLeavesNoKey", func(t *testing.T) {
		m := newScenarioMap(t)

		err := m.Add("west", 1, []float32{1, 2})

		var target *ErrDimensionMismatch
		require.ErrorAs(t, err, &target)
		assert.False(t, m.Contains("west"))

		// The next key still lines up with its row.
		require.NoError(t, m.Add("up", 1, []float32{0, 0, 1, 0}))
		_, vec, err := m.Get("up")
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 0, 1, 0}, vec)
	})

	t.Run("Borrow", func(t *testing.T) {
		m, err := NewVectorMap(2)
		require.NoError(t, err)

		vec := []float32{1, 2}
		require.NoError(t, m.Borrow("k", 1, vec))

		_, got, err := m.Get("k")
		require.NoError(t, err)
		assert.Same(t, &vec[0], &got[0])
		assert.Equal(t, Borrowed, m.Table().Ownership(1))
	})

	t.Run("SetFreq", func(t *testing.T) {
		m := newScenarioMap(t)

		require.NoError(t, m.SetFreq("north", 5))
		assert.Equal(t, uint32(5), m.Freq("north"))

		require.NoError(t, m.SetFreq("east", 0))
		_, _, err := m.Get("east")
		require.ErrorIs(t, err, ErrKeyNotFound)

		require.ErrorIs(t, m.SetFreq("west", 1), ErrKeyNotFound)
		assert.Zero(t, m.Freq("west"))
	})

	t.Run("Iterators", func(t *testing.T) {
		m := newScenarioMap(t)

		assert.Equal(t, []string{"east", "north", "northeast"}, slices.Collect(m.Keys()))

		got := map[string][]float32{}
		for key, vec := range m.Items() {
			got[key] = vec
		}
		assert.Equal(t, map[string][]float32{
			"east":      {1, 0, 0, 0},
			"north":     {0, 1, 0, 0},
			"northeast": {0.6, 0.8, 0, 0},
		}, got)
	})

	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := NewVectorMap(0)

		var target *ErrInvalidDimension
		require.ErrorAs(t, err, &target)
	})
}

func TestVectorMapMostSimilar(t *testing.T) {
	t.Run("Scenario", func(t *testing.T) {
		m := newScenarioMap(t)

		keys, scores, err := m.MostSimilar([]float32{1, 0, 0, 0}, 2)
		require.NoError(t, err)

		assert.Equal(t, []string{"east", "northeast"}, keys)
		require.Len(t, scores, 2)
		assert.InDelta(t, 1.0, scores[0], 1e-5)
		assert.InDelta(t, 0.6, scores[1], 1e-5)
	})

	t.Run("Cached", func(t *testing.T) {
		m := newScenarioMap(t)

		for range 3 {
			_, _, err := m.MostSimilar([]float32{0, 1, 0, 0}, 1)
			require.NoError(t, err)
		}
		hits, misses := m.Table().CacheStats()
		assert.Equal(t, int64(2), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("Filtered", func(t *testing.T) {
		m := newScenarioMap(t)

		keys, scores, err := m.MostSimilarFiltered([]float32{1, 0, 0, 0}, 3, []string{"northeast", "north", "missing"})
		require.NoError(t, err)
		assert.Equal(t, []string{"northeast"}, keys)
		assert.Len(t, scores, 1)
	})

	t.Run("InvalidK", func(t *testing.T) {
		m := newScenarioMap(t)

		_, _, err := m.MostSimilar([]float32{1, 0, 0, 0}, 0)
		require.ErrorIs(t, err, ErrInvalidK)
	})
}

func TestVectorMapPersistence(t *testing.T) {
	ctx := context.Background()

	for _, c := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		t.Run("RoundTrip/"+c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			src := newScenarioMap(t, WithCompression(c))
			require.NoError(t, src.Save(ctx, store))

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{FreqsBlob, StringsBlob, VectorsBlob + c.Extension()}, names)

			dst, err := NewVectorMap(1)
			require.NoError(t, err)
			require.NoError(t, dst.Load(ctx, store))

			assert.Equal(t, 4, dst.Dim())
			assert.Equal(t, slices.Collect(src.Keys()), slices.Collect(dst.Keys()))
			assert.Equal(t, uint32(10), dst.Freq("east"))
			assert.Zero(t, dst.Freq("north"))
			assert.True(t, dst.Contains("north"))

			keys, _, err := dst.MostSimilar([]float32{1, 0, 0, 0}, 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"east", "northeast"}, keys)
		})
	}

	t.Run("Layout", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		m := newScenarioMap(t, WithCodec(codec.JSON{}))
		require.NoError(t, m.Save(ctx, store))

		data, err := store.Get(ctx, StringsBlob)
		require.NoError(t, err)
		assert.JSONEq(t, `["east","north","northeast"]`, string(data))

		data, err = store.Get(ctx, FreqsBlob)
		require.NoError(t, err)
		assert.JSONEq(t, `[["east",10],["northeast",3]]`, string(data))

		data, err = store.Get(ctx, VectorsBlob)
		require.NoError(t, err)
		assert.Len(t, data, persistence.HeaderSize+4*4*4)
	})

	t.Run("SwitchCompression", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, newScenarioMap(t).Save(ctx, store))
		require.NoError(t, newScenarioMap(t, WithCompression(persistence.CompressionZSTD)).Save(ctx, store))

		_, err := store.Get(ctx, VectorsBlob)
		require.ErrorIs(t, err, blobstore.ErrNotFound)

		dst, err := NewVectorMap(4)
		require.NoError(t, err)
		require.NoError(t, dst.Load(ctx, store))
		assert.Equal(t, 3, dst.Len())
	})

	t.Run("LocalStore", func(t *testing.T) {
		store := blobstore.NewLocalStore(t.TempDir())
		rng := testutil.NewRNG(3)
		vectors := rng.UniformVectors(40, 8)
		keys := testutil.Keys("w", len(vectors))

		src, err := NewVectorMap(8, WithCompression(persistence.CompressionLZ4))
		require.NoError(t, err)
		for i, v := range vectors {
			require.NoError(t, src.Add(keys[i], uint32(i+1), v)) //nolint:gosec // small test values
		}
		require.NoError(t, src.Save(ctx, blobstore.WithPrefix(store, "model")))

		dst, err := NewVectorMap(8)
		require.NoError(t, err)
		require.NoError(t, dst.Load(ctx, blobstore.WithPrefix(store, "model")))

		for i, key := range keys {
			freq, vec, err := dst.Get(key)
			require.NoError(t, err)
			assert.Equal(t, uint32(i+1), freq) //nolint:gosec // small test values
			assert.Equal(t, vectors[i], vec)
		}
	})

	t.Run("NotEmpty", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		m := newScenarioMap(t)
		require.NoError(t, m.Save(ctx, store))

		require.ErrorIs(t, m.Load(ctx, store), ErrPreconditionViolation)
	})

	t.Run("Missing", func(t *testing.T) {
		dst, err := NewVectorMap(4)
		require.NoError(t, err)

		err = dst.Load(ctx, blobstore.NewMemoryStore())
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Corrupt", func(t *testing.T) {
		cases := map[string]func(store *blobstore.MemoryStore){
			"CountMismatch": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, StringsBlob, []byte(`["east","north"]`)))
			},
			"DuplicateKey": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, StringsBlob, []byte(`["east","east","north"]`)))
			},
			"BadStrings": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, StringsBlob, []byte(`{`)))
			},
			"UnknownFreqKey": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, FreqsBlob, []byte(`[["west",1]]`)))
			},
			"BadFreq": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, FreqsBlob, []byte(`[["east",-1]]`)))
			},
			"FreqKeyType": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, FreqsBlob, []byte(`[[1,1]]`)))
			},
			"ExtraFreqField": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, FreqsBlob, []byte(`[["east",3,9]]`)))
			},
			"ShortFreqPair": func(store *blobstore.MemoryStore) {
				require.NoError(t, store.Put(ctx, FreqsBlob, []byte(`[["east"]]`)))
			},
			"TruncatedVectors": func(store *blobstore.MemoryStore) {
				data, err := store.Get(ctx, VectorsBlob)
				require.NoError(t, err)
				require.NoError(t, store.Put(ctx, VectorsBlob, data[:len(data)-1]))
			},
		}

		for name, corrupt := range cases {
			t.Run(name, func(t *testing.T) {
				store := blobstore.NewMemoryStore()
				require.NoError(t, newScenarioMap(t).Save(ctx, store))
				corrupt(store)

				dst, err := NewVectorMap(2)
				require.NoError(t, err)

				err = dst.Load(ctx, store)
				require.True(t, errors.Is(err, ErrCorruptPersistedData), "got %v", err)
				assert.Zero(t, dst.Len())
				assert.Equal(t, 1, dst.Table().Len())
				assert.Equal(t, 2, dst.Dim())
			})
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		store := blobstore.NewMemoryStore()
		require.NoError(t, newScenarioMap(t, WithMetricsCollector(mc)).Save(ctx, store))

		dst, err := NewVectorMap(4, WithMetricsCollector(mc))
		require.NoError(t, err)
		require.NoError(t, dst.Load(ctx, store))

		stats := mc.GetStats()
		assert.Equal(t, int64(1), stats.SaveCount)
		assert.Positive(t, stats.SaveBytes)
		assert.Equal(t, stats.SaveBytes, stats.LoadBytes)
	})
}
