package vecscan_bench_test

import (
	"context"
	"testing"

	"github.com/hupe1980/vecscan"
	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/persistence"
)

// BenchmarkSave measures writing a map to an in-memory store per
// compression.
func BenchmarkSave(b *testing.B) {
	ctx := context.Background()

	for _, c := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		b.Run(c.String(), func(b *testing.B) {
			m := setupMap(b, 300, 10000, vecscan.WithCompression(c))
			store := blobstore.NewMemoryStore()
			b.ResetTimer()

			for b.Loop() {
				if err := m.Save(ctx, store); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkLoad measures reading a map back, including decompression.
func BenchmarkLoad(b *testing.B) {
	ctx := context.Background()

	for _, c := range []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionLZ4,
		persistence.CompressionZSTD,
	} {
		b.Run(c.String(), func(b *testing.B) {
			store := blobstore.NewMemoryStore()
			if err := setupMap(b, 300, 10000, vecscan.WithCompression(c)).Save(ctx, store); err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()

			for b.Loop() {
				m, err := vecscan.NewVectorMap(300)
				if err != nil {
					b.Fatal(err)
				}
				if err := m.Load(ctx, store); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
