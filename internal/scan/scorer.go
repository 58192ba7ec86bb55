package scan

import (
	"math"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecscan/distance"
)

// DefaultMinChunk is the smallest number of rows handed to one goroutine.
// Tables with fewer rows are scored on the calling goroutine.
const DefaultMinChunk = 1024

// Options configures a Scorer.
type Options struct {
	// Workers bounds the number of goroutines used per call.
	// Values <= 0 select runtime.GOMAXPROCS(0).
	Workers int

	// MinChunk is the minimum number of rows per goroutine.
	// Values <= 0 select DefaultMinChunk.
	MinChunk int
}

// Scorer is stateless apart from its configuration and is safe for
// concurrent use.
type Scorer struct {
	workers  int
	minChunk int
}

// New creates a Scorer.
func New(optFns ...func(o *Options)) *Scorer {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MinChunk <= 0 {
		opts.MinChunk = DefaultMinChunk
	}
	return &Scorer{workers: opts.Workers, minChunk: opts.MinChunk}
}

// Workers returns the configured parallelism.
func (s *Scorer) Workers() int { return s.workers }

// ScoreAll writes the cosine similarity of query and rows[i] into out[i] for
// every i and returns the query norm. norms[i] must be the L2 norm of
// rows[i], and len(out) must be at least len(rows).
//
// Rows with a zero norm (such as the sentinel) and a zero-norm query yield
// NaN.
func (s *Scorer) ScoreAll(query []float32, rows [][]float32, norms []float32, out []float32) float32 {
	qn := distance.L2Norm(query)
	s.run(len(rows), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = distance.Cosine(query, rows[i], qn, norms[i])
		}
	})
	return qn
}

// ScoreFiltered behaves like ScoreAll but only scores rows whose index is in
// allow. Every other slot is set to NaN so that selection skips it.
// A nil allow scores nothing.
func (s *Scorer) ScoreFiltered(query []float32, rows [][]float32, norms []float32, allow *roaring.Bitmap, out []float32) float32 {
	qn := distance.L2Norm(query)
	nan := float32(math.NaN())
	s.run(len(rows), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if allow == nil || !allow.Contains(uint32(i)) { //nolint:gosec // row counts fit in uint32
				out[i] = nan
				continue
			}
			out[i] = distance.Cosine(query, rows[i], qn, norms[i])
		}
	})
	return qn
}

// run partitions [0, n) into contiguous chunks and calls fn for each.
func (s *Scorer) run(n int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}

	chunk := (n + s.workers - 1) / s.workers
	if chunk < s.minChunk {
		chunk = s.minChunk
	}
	if chunk >= n || s.workers == 1 {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
