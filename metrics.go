package featmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// metric/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordResolvePass is called after the parallel resolution pass.
	// observations is the number of resolved rows.
	RecordResolvePass(observations int, duration time.Duration)

	// RecordFeatureRemoval is called after each step of the minimum-support
	// loop. repaired is the number of re-resolved observations.
	RecordFeatureRemoval(repaired int)

	// RecordRemap is called after each remapping run.
	// dropped is the number of uncovered diagnoses, err is nil if successful.
	RecordRemap(dropped int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordResolvePass(int, time.Duration)  {}
func (NoopMetricsCollector) RecordFeatureRemoval(int)              {}
func (NoopMetricsCollector) RecordRemap(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RemapCount        atomic.Int64
	RemapErrors       atomic.Int64
	RemapTotalNanos   atomic.Int64
	DroppedDiagnoses  atomic.Int64
	ResolvePassCount  atomic.Int64
	ResolvedRows      atomic.Int64
	ResolveTotalNanos atomic.Int64
	FeatureRemovals   atomic.Int64
	RepairedRows      atomic.Int64
}

// RecordResolvePass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordResolvePass(observations int, duration time.Duration) {
	b.ResolvePassCount.Add(1)
	b.ResolvedRows.Add(int64(observations))
	b.ResolveTotalNanos.Add(duration.Nanoseconds())
}

// RecordFeatureRemoval implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFeatureRemoval(repaired int) {
	b.FeatureRemovals.Add(1)
	b.RepairedRows.Add(int64(repaired))
}

// RecordRemap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemap(dropped int, duration time.Duration, err error) {
	b.RemapCount.Add(1)
	b.RemapTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RemapErrors.Add(1)
		return
	}
	b.DroppedDiagnoses.Add(int64(dropped))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RemapCount:       b.RemapCount.Load(),
		RemapErrors:      b.RemapErrors.Load(),
		RemapAvgNanos:    avg(b.RemapTotalNanos.Load(), b.RemapCount.Load()),
		DroppedDiagnoses: b.DroppedDiagnoses.Load(),
		ResolvePassCount: b.ResolvePassCount.Load(),
		ResolvedRows:     b.ResolvedRows.Load(),
		ResolveAvgNanos:  avg(b.ResolveTotalNanos.Load(), b.ResolvePassCount.Load()),
		FeatureRemovals:  b.FeatureRemovals.Load(),
		RepairedRows:     b.RepairedRows.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RemapCount       int64
	RemapErrors      int64
	RemapAvgNanos    int64
	DroppedDiagnoses int64
	ResolvePassCount int64
	ResolvedRows     int64
	ResolveAvgNanos  int64
	FeatureRemovals  int64
	RepairedRows     int64
}
