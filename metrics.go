package ccdbg

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called once at the end of each Build call with the
	// number of sequences dispatched. duration is the total time taken, err
	// is nil if successful.
	RecordBuild(sequences int, duration time.Duration, err error)

	// RecordPromotion is called at most once per color insert, when the insert
	// leaves the unitig's representation higher on the ladder Single <
	// BitVec62 < Bitmap than it found it. A claimed but empty dense slot
	// ranks as BitVec62, and several promotions within one insert count once.
	RecordPromotion()

	// RecordOverflowInsert is called when a unitig is routed into the
	// overflow table during ColorStorage initialization.
	RecordOverflowInsert()

	// RecordJoin is called after each joinColors call.
	RecordJoin(duration time.Duration, err error)

	// RecordSplit is called after each extractColors call.
	RecordSplit(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPromotion()                      {}
func (NoopMetricsCollector) RecordOverflowInsert()                 {}
func (NoopMetricsCollector) RecordJoin(time.Duration, error)       {}
func (NoopMetricsCollector) RecordSplit(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount        atomic.Int64
	BuildErrors       atomic.Int64
	BuildSequences    atomic.Int64
	BuildTotalNanos   atomic.Int64
	PromotionCount    atomic.Int64
	OverflowCount     atomic.Int64
	JoinCount         atomic.Int64
	JoinErrors        atomic.Int64
	SplitCount        atomic.Int64
	SplitErrors       atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(sequences int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildSequences.Add(int64(sequences))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordPromotion implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPromotion() {
	b.PromotionCount.Add(1)
}

// RecordOverflowInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOverflowInsert() {
	b.OverflowCount.Add(1)
}

// RecordJoin implements MetricsCollector.
func (b *BasicMetricsCollector) RecordJoin(duration time.Duration, err error) {
	b.JoinCount.Add(1)
	if err != nil {
		b.JoinErrors.Add(1)
	}
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(duration time.Duration, err error) {
	b.SplitCount.Add(1)
	if err != nil {
		b.SplitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildSequences:  b.BuildSequences.Load(),
		BuildAvgNanos:   b.getAvgBuildNanos(),
		PromotionCount:  b.PromotionCount.Load(),
		OverflowCount:   b.OverflowCount.Load(),
		JoinCount:       b.JoinCount.Load(),
		JoinErrors:      b.JoinErrors.Load(),
		SplitCount:      b.SplitCount.Load(),
		SplitErrors:     b.SplitErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount     int64
	BuildErrors    int64
	BuildSequences int64
	BuildAvgNanos  int64
	PromotionCount int64
	OverflowCount  int64
	JoinCount      int64
	JoinErrors     int64
	SplitCount     int64
	SplitErrors    int64
}
