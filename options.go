package vecscan

import (
	"log/slog"

	"github.com/hupe1980/vecscan/codec"
	"github.com/hupe1980/vecscan/persistence"
	"github.com/hupe1980/vecscan/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	workers          int
	minChunk         int
	chunkBytes       int
	resource         *resource.Controller
	cache            bool
	compression      persistence.Compression
}

// Option configures Table and VectorMap construction.
type Option func(*options)

// WithCodec configures the codec used for the JSON metadata of a VectorMap.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithWorkers bounds the number of goroutines a query scores with.
// Values <= 0 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMinChunk sets the minimum number of rows scored by one goroutine.
// Tables smaller than this are scored on the calling goroutine.
func WithMinChunk(rows int) Option {
	return func(o *options) {
		o.minChunk = rows
	}
}

// WithChunkBytes sets the size of the aligned chunks owned rows are carved
// from.
func WithChunkBytes(n int) Option {
	return func(o *options) {
		o.chunkBytes = n
	}
}

// WithResourceController bounds memory used by owned rows and cached
// results, and paces blob I/O of VectorMap persistence.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	tbl, _ := vecscan.New(300, vecscan.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithCache enables or disables the query result cache. It is enabled by
// default.
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

// WithCompression selects the compression of the persisted table blob of
// a VectorMap.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector receives one call per add, query, save and load.
// nil disables collection.
//
//	metrics := &vecscan.BasicMetricsCollector{}
//	m, _ := vecscan.NewVectorMap(300, vecscan.WithMetricsCollector(metrics))
//	...
//	stats := metrics.GetStats()
//	fmt.Printf("hit rate %.2f\n", float64(stats.QueryCached)/float64(stats.QueryCount))
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger sets the structured logger; nil discards records.
//
//	tbl, _ := vecscan.New(300, vecscan.WithLogger(vecscan.NewJSONLogger(slog.LevelDebug)))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel is WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		cache:            true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
