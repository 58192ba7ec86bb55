package vecscan

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/internal/conv"
	"github.com/hupe1980/vecscan/internal/intern"
	"github.com/hupe1980/vecscan/persistence"
)

// Blob names used by VectorMap.Save and VectorMap.Load.
const (
	StringsBlob = "strings.json"
	VectorsBlob = "vectors.bin"
	FreqsBlob   = "freqs.json"
)

// VectorMap associates string keys and frequency counts with the rows of a
// Table. A key's id equals the index of its row.
//
// Like Table, a VectorMap may be queried concurrently but must not be
// mutated concurrently with anything else.
type VectorMap struct {
	table   *Table
	strings *intern.Table
	freqs   map[uint32]uint32
	opts    options
}

// NewVectorMap creates an empty map of dim-dimensional vectors.
func NewVectorMap(dim int, optFns ...Option) (*VectorMap, error) {
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	o := applyOptions(optFns)
	tbl, err := newTable(dim, o)
	if err != nil {
		return nil, err
	}
	return &VectorMap{
		table:   tbl,
		strings: intern.New(),
		freqs:   make(map[uint32]uint32),
		opts:    o,
	}, nil
}

// Table returns the underlying table.
func (m *VectorMap) Table() *Table { return m.table }

// Dim returns the vector dimension.
func (m *VectorMap) Dim() int { return m.table.Dim() }

// Len returns the number of keys.
func (m *VectorMap) Len() int { return m.strings.Len() }

// Contains reports whether key has been added.
func (m *VectorMap) Contains(key string) bool {
	_, ok := m.strings.Lookup(key)
	return ok
}

// Get returns the frequency and vector of key. It returns ErrKeyNotFound if
// the key is absent or its frequency is 0. The vector aliases table memory
// and must not be modified.
func (m *VectorMap) Get(key string) (uint32, []float32, error) {
	id, ok := m.strings.Lookup(key)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	freq := m.freqs[id]
	if freq == 0 {
		return 0, nil, fmt.Errorf("%w: %q has frequency 0", ErrKeyNotFound, key)
	}
	return freq, m.table.Vector(int(id)), nil
}

// Freq returns the frequency of key, or 0 if it is absent.
func (m *VectorMap) Freq(key string) uint32 {
	id, ok := m.strings.Lookup(key)
	if !ok {
		return 0
	}
	return m.freqs[id]
}

// SetFreq sets the frequency of an existing key.
func (m *VectorMap) SetFreq(key string, freq uint32) error {
	id, ok := m.strings.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	m.setFreq(id, freq)
	return nil
}

func (m *VectorMap) setFreq(id, freq uint32) {
	if freq == 0 {
		delete(m.freqs, id)
		return
	}
	m.freqs[id] = freq
}

// Add copies vec into the table and associates it with key and freq.
func (m *VectorMap) Add(key string, freq uint32, vec []float32) error {
	return m.add(key, freq, vec, m.table.Add)
}

// Borrow is Add without copying vec; see Table.Borrow.
func (m *VectorMap) Borrow(key string, freq uint32, vec []float32) error {
	return m.add(key, freq, vec, m.table.Borrow)
}

func (m *VectorMap) add(key string, freq uint32, vec []float32, insert func([]float32) (int, error)) error {
	if m.Contains(key) {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}

	idx, err := insert(vec)
	if err != nil {
		return err
	}

	id, _ := m.strings.Intern(key)
	if int(id) != idx {
		panic(fmt.Sprintf("vecscan: key id %d does not match row %d", id, idx))
	}
	m.setFreq(id, freq)
	return nil
}

// Keys iterates over keys in id order.
func (m *VectorMap) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, key := range m.strings.All() {
			if !yield(key) {
				return
			}
		}
	}
}

// Items iterates over (key, vector) pairs in id order.
func (m *VectorMap) Items() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		for id, key := range m.strings.All() {
			if !yield(key, m.table.Vector(int(id))) {
				return
			}
		}
	}
}

// MostSimilar returns up to n keys whose vectors are most similar to query,
// best first, with their cosine similarities.
func (m *VectorMap) MostSimilar(query []float32, n int) ([]string, []float32, error) {
	res, err := m.table.Query(query, n)
	if err != nil {
		return nil, nil, err
	}
	return m.resolve(res)
}

// MostSimilarFiltered is MostSimilar restricted to the given keys. Unknown
// keys are ignored. The result cache is not used.
func (m *VectorMap) MostSimilarFiltered(query []float32, n int, keys []string) ([]string, []float32, error) {
	allow := roaring.New()
	for _, key := range keys {
		if id, ok := m.strings.Lookup(key); ok {
			allow.Add(id)
		}
	}
	res, err := m.table.SearchFiltered(query, n, allow)
	if err != nil {
		return nil, nil, err
	}
	return m.resolve(res)
}

func (m *VectorMap) resolve(res Result) ([]string, []float32, error) {
	keys := make([]string, res.Len())
	for i, idx := range res.Indices {
		id, err := conv.IntToUint32(idx)
		if err != nil {
			return nil, nil, err
		}
		key, err := m.strings.String(id)
		if err != nil {
			return nil, nil, translateError(err)
		}
		keys[i] = key
	}
	return keys, res.Scores, nil
}

// freqPair is one [key, freq] element of freqs.json.
type freqPair []any

func (m *VectorMap) vectorsBlob() string {
	return VectorsBlob + m.opts.compression.Extension()
}

// Save writes strings.json, the table blob and freqs.json to store
// concurrently. The table blob is named vectors.bin, with a .lz4 or .zst
// suffix when compression is enabled.
func (m *VectorMap) Save(ctx context.Context, store blobstore.Store) error {
	start := time.Now()
	size, err := m.save(ctx, store)
	m.opts.metricsCollector.RecordSave(size, time.Since(start), err)
	m.opts.logger.LogSave(ctx, m.Len(), size, err)
	return err
}

func (m *VectorMap) save(ctx context.Context, store blobstore.Store) (int64, error) {
	stringsData, err := m.opts.codec.Marshal(m.strings.Strings())
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", StringsBlob, err)
	}

	pairs := make([]freqPair, 0, len(m.freqs))
	for id, key := range m.strings.All() {
		if f := m.freqs[id]; f != 0 {
			pairs = append(pairs, freqPair{key, f})
		}
	}
	freqsData, err := m.opts.codec.Marshal(pairs)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", FreqsBlob, err)
	}

	var raw bytesBuffer
	if err := persistence.WriteTable(&raw, m.table.dim, m.table.rows); err != nil {
		return 0, fmt.Errorf("encode %s: %w", VectorsBlob, err)
	}
	vectorsData, err := persistence.Compress(raw.b, m.opts.compression)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", VectorsBlob, err)
	}

	blobs := []struct {
		name string
		data []byte
	}{
		{StringsBlob, stringsData},
		{m.vectorsBlob(), vectorsData},
		{FreqsBlob, freqsData},
	}

	g, gctx := errgroup.WithContext(ctx)
	var total int64
	for _, b := range blobs {
		name, data := b.name, b.data
		total += int64(len(data))
		g.Go(func() error {
			if err := m.opts.resource.AcquireIO(gctx, len(data)); err != nil {
				return err
			}
			if err := store.Put(gctx, name, data); err != nil {
				return fmt.Errorf("put %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Load tries every suffix, so table blobs written with a different
	// compression must not survive.
	for _, c := range tableCompressions {
		if c == m.opts.compression {
			continue
		}
		name := VectorsBlob + c.Extension()
		if err := store.Delete(ctx, name); err != nil {
			return 0, fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return total, nil
}

// tableCompressions lists the table blob variants in the order Load tries
// them.
var tableCompressions = []persistence.Compression{
	persistence.CompressionNone,
	persistence.CompressionZSTD,
	persistence.CompressionLZ4,
}

// Load reads a map written by Save into an empty VectorMap and adopts the
// persisted dimension. The table blob is looked up under every supported
// compression suffix, uncompressed first.
func (m *VectorMap) Load(ctx context.Context, store blobstore.Store) error {
	start := time.Now()
	size, err := m.load(ctx, store)
	m.opts.metricsCollector.RecordLoad(size, time.Since(start), err)
	m.opts.logger.LogLoad(ctx, m.Len(), size, err)
	return err
}

func (m *VectorMap) load(ctx context.Context, store blobstore.Store) (int64, error) {
	if m.Len() > 0 || m.table.Len() > 1 {
		return 0, fmt.Errorf("%w: load into a map with %d keys", ErrPreconditionViolation, m.Len())
	}

	var stringsData, vectorsData, freqsData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stringsData, err = m.get(gctx, store, StringsBlob)
		return err
	})
	g.Go(func() (err error) {
		vectorsData, err = m.getVectors(gctx, store)
		return err
	})
	g.Go(func() (err error) {
		freqsData, err = m.get(gctx, store, FreqsBlob)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	size := int64(len(stringsData) + len(vectorsData) + len(freqsData))

	var keys []string
	if err := m.opts.codec.Unmarshal(stringsData, &keys); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %w", ErrCorruptPersistedData, StringsBlob, err)
	}

	var pairs []freqPair
	if err := m.opts.codec.Unmarshal(freqsData, &pairs); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %w", ErrCorruptPersistedData, FreqsBlob, err)
	}

	raw, err := persistence.Decompress(vectorsData)
	if err != nil {
		return 0, translateError(err)
	}

	strs := intern.New()
	for _, key := range keys {
		if _, added := strs.Intern(key); !added {
			return 0, fmt.Errorf("%w: duplicate key %q in %s", ErrCorruptPersistedData, key, StringsBlob)
		}
	}

	freqs := make(map[uint32]uint32, len(pairs))
	for i, p := range pairs {
		key, freq, err := p.decode()
		if err != nil {
			return 0, fmt.Errorf("%w: %s entry %d: %w", ErrCorruptPersistedData, FreqsBlob, i, err)
		}
		id, ok := strs.Lookup(key)
		if !ok {
			return 0, fmt.Errorf("%w: %s entry %d: unknown key %q", ErrCorruptPersistedData, FreqsBlob, i, key)
		}
		if freq != 0 {
			freqs[id] = freq
		}
	}

	_, err = m.table.loadRows(readBytes(raw), func(h persistence.Header) error {
		if h.Count != strs.Len()+1 {
			return fmt.Errorf("%w: %d keys but %d vectors", ErrCorruptPersistedData, strs.Len(), h.Count-1)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.strings = strs
	m.freqs = freqs
	return size, nil
}

func (m *VectorMap) get(ctx context.Context, store blobstore.Store, name string) ([]byte, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	if err := m.opts.resource.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

func (m *VectorMap) getVectors(ctx context.Context, store blobstore.Store) ([]byte, error) {
	var firstErr error
	for _, c := range tableCompressions {
		data, err := m.get(ctx, store, VectorsBlob+c.Extension())
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, blobstore.ErrNotFound) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (p freqPair) decode() (string, uint32, error) {
	if len(p) != 2 {
		return "", 0, fmt.Errorf("entry has %d elements, want 2", len(p))
	}
	key, ok := p[0].(string)
	if !ok {
		return "", 0, fmt.Errorf("key is %T, want string", p[0])
	}
	f, ok := p[1].(float64)
	if !ok {
		return "", 0, fmt.Errorf("frequency is %T, want number", p[1])
	}
	freq, err := conv.Float64ToUint32(f)
	if err != nil {
		return "", 0, fmt.Errorf("frequency: %w", err)
	}
	return key, freq, nil
}

// bytesBuffer is a minimal append-only io.Writer.
type bytesBuffer struct {
	b []byte
}

func (w *bytesBuffer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
