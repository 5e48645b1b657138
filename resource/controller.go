package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrBackpressure is returned when a memory reservation would exceed the hard limit.
var ErrBackpressure = errors.New("resource limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for build working memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentBuilds is the number of snapshot builds allowed in flight
	// across every store sharing the controller. A single store never runs
	// more than one. If 0, defaults to 1.
	MaxConcurrentBuilds int64

	// TriggersPerSecond throttles dataset-arrival triggers.
	// If 0, unlimited.
	TriggersPerSecond float64

	// TriggerBurst is the number of triggers allowed at once. Defaults to 1.
	TriggerBurst int

	// IOLimitBytesPerSec is the maximum throughput for model reads and writes.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages build slots, build memory and trigger rates.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Builds
	buildSem *semaphore.Weighted
	builds   atomic.Int64

	// Rate
	triggers  *rate.Limiter // nil if unlimited
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentBuilds <= 0 {
		cfg.MaxConcurrentBuilds = 1
	}
	if cfg.TriggerBurst <= 0 {
		cfg.TriggerBurst = 1
	}

	c := &Controller{
		cfg:      cfg,
		buildSem: semaphore.NewWeighted(cfg.MaxConcurrentBuilds),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.TriggersPerSecond > 0 {
		c.triggers = rate.NewLimiter(rate.Limit(cfg.TriggersPerSecond), cfg.TriggerBurst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// AcquireMemory reserves memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return ErrBackpressure
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves memory without blocking.
// Returns false if the limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
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
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current reserved memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// TryAcquireBuild reserves a build slot without waiting.
// Builds are rejected, never queued.
func (c *Controller) TryAcquireBuild() bool {
	if !c.buildSem.TryAcquire(1) {
		return false
	}
	c.builds.Add(1)
	return true
}

// ReleaseBuild releases a build slot.
func (c *Controller) ReleaseBuild() {
	c.builds.Add(-1)
	c.buildSem.Release(1)
}

// ActiveBuilds returns the number of builds in flight.
func (c *Controller) ActiveBuilds() int64 {
	return c.builds.Load()
}

// AllowTrigger reports whether a dataset-arrival trigger may start a build now.
func (c *Controller) AllowTrigger() bool {
	if c == nil || c.triggers == nil {
		return true
	}
	return c.triggers.Allow()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	// WaitN rejects requests larger than the burst.
	for bytes > 0 {
		n := min(bytes, c.ioLimiter.Burst())
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
