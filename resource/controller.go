// Package resource bounds the memory, connections and copy throughput used by
// a run.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for block buffers held by exports.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConnections is the maximum number of concurrent table loads, each of
	// which holds one database connection.
	// If 0, defaults to 1.
	MaxConnections int64

	// IOLimitBytesPerSec caps copy stream writes and verify reads, shared by
	// all streams of a run.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages global resources (memory, concurrency, IO).
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	connSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1
	}

	c := &Controller{
		cfg:     cfg,
		connSem: semaphore.NewWeighted(cfg.MaxConnections),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
// A request larger than the limit itself is clamped to the limit.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, c.clamp(bytes)); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(c.clamp(bytes)) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(c.clamp(bytes))
	}
	c.memUsed.Add(-bytes)
}

func (c *Controller) clamp(bytes int64) int64 {
	return min(bytes, c.cfg.MemoryLimitBytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireConnection reserves a connection slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireConnection(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.connSem.Acquire(ctx, 1)
}

// TryAcquireConnection attempts to reserve a connection slot without blocking.
func (c *Controller) TryAcquireConnection() bool {
	if c == nil {
		return true
	}
	return c.connSem.TryAcquire(1)
}

// ReleaseConnection releases a connection slot.
func (c *Controller) ReleaseConnection() {
	if c == nil {
		return
	}
	c.connSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// bytes must not exceed IOBurst.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// IOBurst returns the largest single AcquireIO request, or 0 if unlimited.
func (c *Controller) IOBurst() int {
	if c == nil || c.ioLimiter == nil {
		return 0
	}
	return c.ioLimiter.Burst()
}
