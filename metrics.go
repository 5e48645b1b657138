package vecsight

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    buildCounter   prometheus.Counter
//	    scoreHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordBuild(rows int, duration time.Duration, err error) {
//	    p.buildCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordBuild is called after each snapshot build that was admitted.
	// rows is the dataset size, err is nil if the snapshot was published.
	RecordBuild(rows int, duration time.Duration, err error)

	// RecordBuildRejected is called when a build is rejected because another
	// build is in flight.
	RecordBuildRejected()

	// RecordScore is called after each novelty scoring call.
	// records is the number of scored items.
	RecordScore(records int, duration time.Duration, err error)

	// RecordRetrain is called after each reference model fit.
	RecordRetrain(points int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordBuildRejected()                    {}
func (NoopMetricsCollector) RecordScore(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordRetrain(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildRejected   atomic.Int64
	BuildTotalNanos atomic.Int64
	BuildRows       atomic.Int64
	ScoreCount      atomic.Int64
	ScoreErrors     atomic.Int64
	ScoreRecords    atomic.Int64
	ScoreTotalNanos atomic.Int64
	RetrainCount    atomic.Int64
	RetrainErrors   atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(int64(rows))
}

// RecordBuildRejected implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuildRejected() {
	b.BuildRejected.Add(1)
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(records int, duration time.Duration, err error) {
	b.ScoreCount.Add(1)
	b.ScoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScoreErrors.Add(1)
		return
	}
	b.ScoreRecords.Add(int64(records))
}

// RecordRetrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetrain(points int, duration time.Duration, err error) {
	b.RetrainCount.Add(1)
	if err != nil {
		b.RetrainErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:    b.BuildCount.Load(),
		BuildErrors:   b.BuildErrors.Load(),
		BuildRejected: b.BuildRejected.Load(),
		BuildAvgNanos: avgNanos(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		BuildRows:     b.BuildRows.Load(),
		ScoreCount:    b.ScoreCount.Load(),
		ScoreErrors:   b.ScoreErrors.Load(),
		ScoreRecords:  b.ScoreRecords.Load(),
		ScoreAvgNanos: avgNanos(b.ScoreTotalNanos.Load(), b.ScoreCount.Load()),
		RetrainCount:  b.RetrainCount.Load(),
		RetrainErrors: b.RetrainErrors.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount    int64
	BuildErrors   int64
	BuildRejected int64
	BuildAvgNanos int64
	BuildRows     int64
	ScoreCount    int64
	ScoreErrors   int64
	ScoreRecords  int64
	ScoreAvgNanos int64
	RetrainCount  int64
	RetrainErrors int64
}
