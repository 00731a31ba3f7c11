// Package resource implements Controller, the memory and concurrency budget
// a single ColorStorage build draws against. It is the ctx-free counterpart
// to the root resource package's IO-throttling Controller: this one's
// AcquireMemory/ReleaseMemory pair satisfies unitigcolors.MemoryAcquirer
// directly, so every Bitmap promotion inside UnitigColors.Add can charge
// against the same budget without threading a context through the hot path.
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic
// counters for usage tracking. AcquireMemory is non-blocking and returns
// immediately with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	cs, err := ccdbg.NewColorStorage(graph, ccdbg.WithKmerLength(k), ccdbg.WithMemoryLimit(1<<30))
//
// # Background Worker Limits
//
// Limits concurrent background operations; ColorStorage.Build holds one slot
// for its duration:
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use. The underlying
// implementations use atomic operations and sync primitives.
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This lets ColorStorage run with no memory or concurrency limit configured
// at all, without nil checks scattered through the Add/promotion path.
package resource
