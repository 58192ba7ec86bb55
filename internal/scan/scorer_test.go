package scan

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/distance"
)

func scenarioRows() ([][]float32, []float32) {
	rows := [][]float32{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.6, 0.8, 0, 0},
	}
	norms := make([]float32, len(rows))
	for i, r := range rows {
		norms[i] = distance.L2Norm(r)
	}
	return rows, norms
}

func TestScoreAll(t *testing.T) {
	rows, norms := scenarioRows()
	out := make([]float32, len(rows))

	qn := New().ScoreAll([]float32{1, 0, 0, 0}, rows, norms, out)
	assert.InDelta(t, 1.0, qn, 1e-6)

	assert.True(t, math.IsNaN(float64(out[0])), "sentinel must score NaN")
	assert.InDelta(t, 1.0, out[1], 1e-6)
	assert.InDelta(t, 0.0, out[2], 1e-6)
	assert.InDelta(t, 0.6, out[3], 1e-6)
}

func TestScoreAllParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const dim, count = 17, 5000

	rows := make([][]float32, count)
	norms := make([]float32, count)
	for i := range rows {
		rows[i] = make([]float32, dim)
		for j := range rows[i] {
			rows[i][j] = rng.Float32()*2 - 1
		}
		norms[i] = distance.L2Norm(rows[i])
	}
	query := rows[42]

	serial := make([]float32, count)
	New(func(o *Options) { o.Workers = 1 }).ScoreAll(query, rows, norms, serial)

	parallel := make([]float32, count)
	s := New(func(o *Options) {
		o.Workers = 8
		o.MinChunk = 100
	})
	require.Equal(t, 8, s.Workers())
	s.ScoreAll(query, rows, norms, parallel)

	assert.Equal(t, serial, parallel)
	assert.InDelta(t, 1.0, parallel[42], 1e-5)
}

func TestScoreFiltered(t *testing.T) {
	rows, norms := scenarioRows()
	out := make([]float32, len(rows))

	allow := roaring.BitmapOf(2, 3)
	New().ScoreFiltered([]float32{1, 0, 0, 0}, rows, norms, allow, out)

	assert.True(t, math.IsNaN(float64(out[0])))
	assert.True(t, math.IsNaN(float64(out[1])))
	assert.InDelta(t, 0.0, out[2], 1e-6)
	assert.InDelta(t, 0.6, out[3], 1e-6)

	New().ScoreFiltered([]float32{1, 0, 0, 0}, rows, norms, nil, out)
	for _, v := range out {
		assert.True(t, math.IsNaN(float64(v)))
	}
}

func TestScoreAllEmpty(t *testing.T) {
	assert.NotPanics(t, func() {
		New().ScoreAll([]float32{1}, nil, nil, nil)
	})
}

func BenchmarkScoreAll(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const dim, count = 128, 50_000
	rows := make([][]float32, count)
	norms := make([]float32, count)
	for i := range rows {
		rows[i] = make([]float32, dim)
		for j := range rows[i] {
			rows[i][j] = rng.Float32()
		}
		norms[i] = distance.L2Norm(rows[i])
	}
	out := make([]float32, count)
	s := New()

	for b.Loop() {
		s.ScoreAll(rows[0], rows, norms, out)
	}
}
