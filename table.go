package vecscan

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecscan/distance"
	"github.com/hupe1980/vecscan/internal/cache"
	"github.com/hupe1980/vecscan/internal/mem"
	"github.com/hupe1980/vecscan/internal/scan"
	"github.com/hupe1980/vecscan/internal/topk"
	"github.com/hupe1980/vecscan/persistence"
	"github.com/hupe1980/vecscan/resource"
)

// Result holds the rows selected by a query, best first.
// Indices[i] is the row with similarity Scores[i].
type Result = topk.Result

// Ownership records whether a row's buffer belongs to the table.
type Ownership uint8

const (
	// Owned rows were copied into table memory on insertion.
	Owned Ownership = iota
	// Borrowed rows reference caller memory that must stay valid and
	// unmodified for the lifetime of the table.
	Borrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	default:
		return fmt.Sprintf("Ownership(%d)", uint8(o))
	}
}

// Table is an append-only collection of fixed-dimension vectors searched by
// exhaustive cosine scan. Row 0 is a zero sentinel added by New.
type Table struct {
	dim       int
	rows      [][]float32
	norms     []float32
	ownership []Ownership

	slab     *mem.Slab
	reserved int64 // bytes of owned rows charged to rc

	scorer *scan.Scorer
	cache  *cache.ResultCache // nil when disabled
	rc     *resource.Controller

	scores    sync.Pool // *[]float32
	selectors sync.Pool // *topk.Selector

	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// New creates a table of dim-dimensional vectors holding only the sentinel.
func New(dim int, optFns ...Option) (*Table, error) {
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	return newTable(dim, applyOptions(optFns))
}

func newTable(dim int, o options) (*Table, error) {
	scorer := scan.New(func(so *scan.Options) {
		so.Workers = o.workers
		so.MinChunk = o.minChunk
	})

	t := &Table{
		dim:     dim,
		slab:    mem.NewSlab(dim, o.chunkBytes),
		scorer:  scorer,
		rc:      o.resource,
		opts:    o,
		logger:  o.logger.WithDimension(dim),
		metrics: o.metricsCollector,
	}
	t.selectors.New = func() any { return new(topk.Selector) }
	if o.cache {
		t.cache = cache.New(o.resource)
	}

	if _, err := t.addOwned(make([]float32, dim)); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of rows including the sentinel.
func (t *Table) Len() int { return len(t.rows) }

// Dim returns the vector dimension.
func (t *Table) Dim() int { return t.dim }

// Vector returns row i. The slice aliases table memory and must not be
// modified.
func (t *Table) Vector(i int) []float32 { return t.rows[i] }

// Norm returns the L2 norm of row i computed at insertion.
func (t *Table) Norm(i int) float32 { return t.norms[i] }

// Ownership returns the ownership of row i.
func (t *Table) Ownership(i int) Ownership { return t.ownership[i] }

// All iterates over (index, vector) pairs in index order, sentinel first.
func (t *Table) All() iter.Seq2[int, []float32] {
	return func(yield func(int, []float32) bool) {
		for i, row := range t.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

// MemoryUsage returns the bytes reserved for owned rows.
func (t *Table) MemoryUsage() int64 { return t.reserved }

// Add copies vec into table memory and appends it. It returns the new
// row's index.
func (t *Table) Add(vec []float32) (int, error) {
	start := time.Now()
	idx, err := t.add(vec, Owned)
	t.metrics.RecordAdd(time.Since(start), err)
	t.logger.LogAdd(context.Background(), idx, false, err)
	return idx, err
}

// Borrow appends vec without copying it. The caller must keep vec valid
// and unmodified for the lifetime of the table; this is not checked.
func (t *Table) Borrow(vec []float32) (int, error) {
	start := time.Now()
	idx, err := t.add(vec, Borrowed)
	t.metrics.RecordAdd(time.Since(start), err)
	t.logger.LogAdd(context.Background(), idx, true, err)
	return idx, err
}

func (t *Table) add(vec []float32, own Ownership) (int, error) {
	if len(vec) != t.dim {
		return -1, &ErrDimensionMismatch{Expected: t.dim, Actual: len(vec)}
	}

	var (
		idx int
		err error
	)
	if own == Borrowed {
		idx = t.appendRow(vec, distance.L2Norm(vec), Borrowed)
	} else {
		idx, err = t.addOwned(vec)
	}
	if err != nil {
		return -1, err
	}

	if t.cache != nil {
		t.cache.Reset()
	}
	return idx, nil
}

func (t *Table) addOwned(vec []float32) (int, error) {
	rowBytes := t.slab.RowBytes()
	if err := t.rc.ReserveMemory(rowBytes); err != nil {
		return -1, fmt.Errorf("add row: %w", err)
	}
	t.reserved += rowBytes

	buf := t.slab.Alloc()
	copy(buf, vec)
	return t.appendRow(buf, distance.L2Norm(buf), Owned), nil
}

func (t *Table) appendRow(buf []float32, norm float32, own Ownership) int {
	t.rows = append(t.rows, buf)
	t.norms = append(t.norms, norm)
	t.ownership = append(t.ownership, own)
	return len(t.rows) - 1
}

// Query returns up to n rows most similar to vec by cosine similarity, best
// first. Only rows with a similarity strictly greater than zero qualify, so
// the result may hold fewer than n rows.
//
// Results are cached per query vector and n until the table is mutated.
func (t *Table) Query(vec []float32, n int) (Result, error) {
	start := time.Now()
	res, cached, err := t.query(vec, n)
	t.metrics.RecordQuery(n, cached, time.Since(start), err)
	t.logger.LogQuery(context.Background(), n, res.Len(), cached, err)
	return res, err
}

func (t *Table) query(vec []float32, n int) (Result, bool, error) {
	if err := t.checkQuery(vec, n); err != nil {
		return Result{}, false, err
	}

	var key uint64
	if t.cache != nil {
		key = t.cache.Key(vec)
		if res, ok := t.cache.Get(key, vec, n); ok {
			return res, true, nil
		}
	}

	res := t.scoreAndSelect(vec, n, nil)

	if t.cache != nil {
		t.cache.Put(key, vec, n, res)
	}
	return res, false, nil
}

// SearchFiltered is Query restricted to the rows in allow. Filtered
// searches bypass the result cache. A nil allow matches no rows.
func (t *Table) SearchFiltered(vec []float32, n int, allow *roaring.Bitmap) (Result, error) {
	start := time.Now()
	err := t.checkQuery(vec, n)
	var res Result
	if err == nil {
		if allow == nil {
			allow = roaring.New()
		}
		res = t.scoreAndSelect(vec, n, allow)
	}
	t.metrics.RecordQuery(n, false, time.Since(start), err)
	t.logger.LogQuery(context.Background(), n, res.Len(), false, err)
	return res, err
}

func (t *Table) checkQuery(vec []float32, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, n)
	}
	if len(vec) != t.dim {
		return &ErrDimensionMismatch{Expected: t.dim, Actual: len(vec)}
	}
	return nil
}

func (t *Table) scoreAndSelect(vec []float32, n int, allow *roaring.Bitmap) Result {
	scores := t.getScores()
	defer t.scores.Put(scores)

	if allow != nil {
		t.scorer.ScoreFiltered(vec, t.rows, t.norms, allow, *scores)
	} else {
		t.scorer.ScoreAll(vec, t.rows, t.norms, *scores)
	}

	sel := t.selectors.Get().(*topk.Selector)
	defer t.selectors.Put(sel)
	return sel.Select(*scores, n)
}

func (t *Table) getScores() *[]float32 {
	if v := t.scores.Get(); v != nil {
		buf := v.(*[]float32)
		if cap(*buf) >= len(t.rows) {
			*buf = (*buf)[:len(t.rows)]
			return buf
		}
	}
	buf := make([]float32, len(t.rows), len(t.rows)+len(t.rows)/4)
	return &buf
}

// CacheStats returns the result cache hit and miss counts. Both are zero
// when the cache is disabled.
func (t *Table) CacheStats() (hits, misses int64) {
	if t.cache == nil {
		return 0, 0
	}
	return t.cache.Stats()
}

// CacheLen returns the number of cached query results.
func (t *Table) CacheLen() int {
	if t.cache == nil {
		return 0
	}
	return t.cache.Len()
}

// Save writes every row, sentinel included, in the persistence table
// layout.
func (t *Table) Save(w io.Writer) error {
	start := time.Now()
	err := persistence.WriteTable(w, t.dim, t.rows)
	size := persistence.Header{Count: len(t.rows), Dim: t.dim}.EncodedSize()
	t.metrics.RecordSave(size, time.Since(start), err)
	t.logger.LogSave(context.Background(), len(t.rows), size, err)
	return err
}

// Load reads rows written by Save into an empty table and adopts the
// persisted dimension. Loaded rows are owned. On error the table is left
// unchanged.
func (t *Table) Load(r io.Reader) error {
	return t.load(func(fn func([]float32) error) (persistence.Header, error) {
		return persistence.ReadTable(r, fn)
	})
}

// LoadBytes is Load over an in-memory buffer. The size declared by the
// header is validated against len(data) before any row is decoded.
func (t *Table) LoadBytes(data []byte) error {
	return t.load(readBytes(data))
}

type readFunc func(fn func(row []float32) error) (persistence.Header, error)

func readBytes(data []byte) readFunc {
	return func(fn func([]float32) error) (persistence.Header, error) {
		return persistence.ReadTableBytes(data, fn)
	}
}

func (t *Table) load(read readFunc) error {
	start := time.Now()
	h, err := t.loadRows(read, nil)
	t.metrics.RecordLoad(h.EncodedSize(), time.Since(start), err)
	t.logger.LogLoad(context.Background(), h.Count, h.EncodedSize(), err)
	return err
}

// loadRows stages rows from read into a fresh table. check, if set, may
// reject the decoded header before the staged rows replace the current ones.
func (t *Table) loadRows(read readFunc, check func(persistence.Header) error) (persistence.Header, error) {
	if len(t.rows) > 1 {
		return persistence.Header{}, fmt.Errorf("%w: load into a table with %d rows", ErrPreconditionViolation, len(t.rows)-1)
	}

	var staged *Table
	stage := func(dim int) error {
		if staged != nil {
			return nil
		}
		var err error
		staged, err = newTable(dim, t.opts)
		return err
	}

	h, err := read(func(row []float32) error {
		if err := stage(len(row)); err != nil {
			return err
		}
		_, err := staged.addOwned(row)
		return err
	})
	if err == nil {
		err = stage(h.Dim)
	}
	if err == nil && check != nil {
		err = check(h)
	}
	if err != nil {
		if staged != nil {
			staged.release()
		}
		return persistence.Header{}, translateError(err)
	}

	t.release()
	t.adopt(staged)
	return h, nil
}

func (t *Table) release() {
	t.rc.ReleaseMemory(t.reserved)
	t.reserved = 0
	if t.cache != nil {
		t.cache.Reset()
	}
}

func (t *Table) adopt(src *Table) {
	t.dim = src.dim
	t.rows = src.rows
	t.norms = src.norms
	t.ownership = src.ownership
	t.slab = src.slab
	t.reserved = src.reserved
	t.logger = t.opts.logger.WithDimension(src.dim)
}
