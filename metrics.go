package vecscan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each Add or Borrow.
	RecordAdd(duration time.Duration, err error)

	// RecordQuery is called after each query. cached reports whether the
	// result came from the result cache.
	RecordQuery(n int, cached bool, duration time.Duration, err error)

	// RecordSave is called after each save with the number of bytes written.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after each load with the number of bytes read.
	RecordLoad(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)              {}
func (NoopMetricsCollector) RecordQuery(int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error)      {}
func (NoopMetricsCollector) RecordLoad(int64, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount        atomic.Int64
	AddErrors       atomic.Int64
	QueryCount      atomic.Int64
	QueryCached     atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	SaveCount       atomic.Int64
	SaveErrors      atomic.Int64
	SaveBytes       atomic.Int64
	LoadCount       atomic.Int64
	LoadErrors      atomic.Int64
	LoadBytes       atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(_ time.Duration, err error) {
	b.AddCount.Add(1)
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, cached bool, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if cached {
		b.QueryCached.Add(1)
	}
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int64, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:      b.AddCount.Load(),
		AddErrors:     b.AddErrors.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryCached:   b.QueryCached.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryAvgNanos: b.getAvgQueryNanos(),
		SaveCount:     b.SaveCount.Load(),
		SaveErrors:    b.SaveErrors.Load(),
		SaveBytes:     b.SaveBytes.Load(),
		LoadCount:     b.LoadCount.Load(),
		LoadErrors:    b.LoadErrors.Load(),
		LoadBytes:     b.LoadBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount      int64
	AddErrors     int64
	QueryCount    int64
	QueryCached   int64
	QueryErrors   int64
	QueryAvgNanos int64
	SaveCount     int64
	SaveErrors    int64
	SaveBytes     int64
	LoadCount     int64
	LoadErrors    int64
	LoadBytes     int64
}
