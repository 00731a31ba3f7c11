package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_MemoryFailFast(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(100))
	assert.Equal(t, int64(100), c.MemoryUsage())

	// The budget is exhausted; AcquireMemory must not block.
	start := time.Now()
	err := c.AcquireMemory(1)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Less(t, time.Since(start), time.Second)

	c.ReleaseMemory(10)
	assert.Equal(t, int64(90), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(5))
	assert.Equal(t, int64(95), c.MemoryUsage())
}

func TestController_NonPositiveSizes(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})

	assert.NoError(t, c.AcquireMemory(-1))
	assert.NoError(t, c.AcquireMemory(0))
	c.ReleaseMemory(-1)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_MemoryLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 1024})
	assert.Equal(t, int64(1024), c.MemoryLimit())

	c2 := NewController(Config{})
	assert.Equal(t, int64(0), c2.MemoryLimit())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.AcquireMemory(100))
	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())

	assert.NoError(t, c.AcquireBackground(context.Background()))
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
}

func TestController_BackgroundBlocksUntilReleased(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 1})
	require.NoError(t, c.AcquireBackground(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(ctx))

	c.ReleaseBackground()
	require.NoError(t, c.AcquireBackground(context.Background()))
	c.ReleaseBackground()
}

func TestController_ConcurrentAcquireRelease(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 1 << 20})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if err := c.AcquireMemory(64); err == nil {
					c.ReleaseMemory(64)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(0), c.MemoryUsage())
}
