// Package resource throttles the file and object-store I/O a ColorStorage
// issues when saving or loading a `.bfg_colors` file. It is the ctx-based
// counterpart to internal/resource: that package budgets the memory and
// worker concurrency of a build in flight, while this one paces the bytes
// of a Save or Load so a background re-save of a multi-gigabyte color file
// does not starve other disk or network traffic on the host.
package resource

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds the I/O limit for one Controller.
type Config struct {
	// IOLimitBytesPerSec is the maximum throughput for reads and writes
	// passed through RateLimitedReader/RateLimitedWriter. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller paces I/O through a token bucket sized to the configured
// bytes-per-second limit. A nil Controller is valid and imposes no limit.
type Controller struct {
	ioLimiter *rate.Limiter
}

// NewController creates a new I/O controller.
func NewController(cfg Config) *Controller {
	c := &Controller{}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireIO waits until the limit allows the specified number of bytes, or
// ctx is cancelled.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
