// Package resource bounds the memory held by tables and result caches and
// paces the bytes moved by VectorMap persistence.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation does not fit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits. Zero means unlimited.
type Config struct {
	// MemoryLimitBytes caps owned vector rows plus cached query results.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec caps blob transfer throughput.
	IOLimitBytesPerSec int64
}

// Controller accounts memory reservations and paces blob I/O.
// A nil *Controller is valid and imposes no limits.
type Controller struct {
	limit int64
	mem   *semaphore.Weighted // nil when unlimited
	used  atomic.Int64

	io    *rate.Limiter // nil when unlimited
	burst int
}

func NewController(cfg Config) *Controller {
	c := &Controller{limit: max(cfg.MemoryLimitBytes, 0)}
	if c.limit > 0 {
		c.mem = semaphore.NewWeighted(c.limit)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.burst = int(cfg.IOLimitBytesPerSec)
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), c.burst)
	}
	return c
}

// TryAcquireMemory reserves bytes if they fit, without blocking. Rows and
// cache entries are never waited for: a table that is full stays full until
// it is released.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.mem != nil && !c.mem.TryAcquire(bytes) {
		return false
	}
	c.used.Add(bytes)
	return true
}

// ReserveMemory is TryAcquireMemory reporting ErrMemoryLimitExceeded.
func (c *Controller) ReserveMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// ReleaseMemory returns a reservation. Releasing more than was reserved
// panics inside the semaphore.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(bytes)
	}
	c.used.Add(-bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// MemoryLimit returns the configured cap, 0 when unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.limit
}

// AcquireIO blocks until bytes may be transferred or ctx is done. Blobs
// larger than one second of budget are charged in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.io == nil {
		return ctx.Err()
	}
	for bytes > 0 {
		step := min(bytes, c.burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		bytes -= step
	}
	return nil
}
