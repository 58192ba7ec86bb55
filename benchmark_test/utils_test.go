package vecscan_bench_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/vecscan"
	"github.com/hupe1980/vecscan/testutil"
)

func formatDim(dim int) string { return fmt.Sprintf("dim=%d", dim) }

func formatCount(n int) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("n=%dM", n/1_000_000)
	case n >= 1000 && n%1000 == 0:
		return fmt.Sprintf("n=%dK", n/1000)
	default:
		return fmt.Sprintf("n=%d", n)
	}
}

// setupTable fills a table with size uniform random vectors and returns it
// with a matching query.
func setupTable(b *testing.B, dim, size int, optFns ...vecscan.Option) (*vecscan.Table, []float32) {
	b.Helper()

	rng := testutil.NewRNG(int64(dim*31 + size))
	tbl, err := vecscan.New(dim, optFns...)
	if err != nil {
		b.Fatal(err)
	}
	for _, v := range rng.UniformRangeVectors(size, dim) {
		if _, err := tbl.Add(v); err != nil {
			b.Fatal(err)
		}
	}
	return tbl, rng.UniformRangeVectors(1, dim)[0]
}

// setupMap is setupTable for a VectorMap with generated keys.
func setupMap(b *testing.B, dim, size int, optFns ...vecscan.Option) *vecscan.VectorMap {
	b.Helper()

	rng := testutil.NewRNG(int64(dim*17 + size))
	m, err := vecscan.NewVectorMap(dim, optFns...)
	if err != nil {
		b.Fatal(err)
	}
	keys := testutil.Keys("key", size)
	for i, v := range rng.UniformRangeVectors(size, dim) {
		if err := m.Add(keys[i], uint32(i+1), v); err != nil { //nolint:gosec // bounded by size
			b.Fatal(err)
		}
	}
	return m
}
