package quadgo

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
//	    insertCounter  prometheus.Counter
//	    queryHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordInsert(duration time.Duration, err error) {
//	    p.insertCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBulkInsert is called after each bulk insert operation.
	// attempted is the number of geometries offered, inserted the number
	// committed before the operation stopped.
	RecordBulkInsert(attempted, inserted int, duration time.Duration)

	// RecordQuery is called after each range query.
	// found is the number of results returned.
	RecordQuery(found int, duration time.Duration)

	// RecordKNN is called after each nearest-neighbor search.
	// k is the number of neighbors requested, err is nil if successful.
	RecordKNN(k int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordUpdate is called after each update operation.
	RecordUpdate(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)        {}
func (NoopMetricsCollector) RecordBulkInsert(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration)           {}
func (NoopMetricsCollector) RecordKNN(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)        {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	BulkInsertCount   atomic.Int64
	BulkInsertItems   atomic.Int64
	BulkInsertStopped atomic.Int64
	QueryCount        atomic.Int64
	QueryResults      atomic.Int64
	QueryTotalNanos   atomic.Int64
	KNNCount          atomic.Int64
	KNNErrors         atomic.Int64
	KNNTotalNanos     atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	UpdateCount       atomic.Int64
	UpdateErrors      atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBulkInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBulkInsert(attempted, inserted int, duration time.Duration) {
	b.BulkInsertCount.Add(1)
	b.BulkInsertItems.Add(int64(inserted))
	if inserted < attempted {
		b.BulkInsertStopped.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(found int, duration time.Duration) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(found))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
}

// RecordKNN implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKNN(k int, duration time.Duration, err error) {
	b.KNNCount.Add(1)
	b.KNNTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.KNNErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BulkInsertCount:   b.BulkInsertCount.Load(),
		BulkInsertItems:   b.BulkInsertItems.Load(),
		BulkInsertStopped: b.BulkInsertStopped.Load(),
		QueryCount:        b.QueryCount.Load(),
		QueryResults:      b.QueryResults.Load(),
		QueryAvgNanos:     avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		KNNCount:          b.KNNCount.Load(),
		KNNErrors:         b.KNNErrors.Load(),
		KNNAvgNanos:       avg(b.KNNTotalNanos.Load(), b.KNNCount.Load()),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		UpdateCount:       b.UpdateCount.Load(),
		UpdateErrors:      b.UpdateErrors.Load(),
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
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	BulkInsertCount   int64
	BulkInsertItems   int64
	BulkInsertStopped int64
	QueryCount        int64
	QueryResults      int64
	QueryAvgNanos     int64
	KNNCount          int64
	KNNErrors         int64
	KNNAvgNanos       int64
	DeleteCount       int64
	DeleteErrors      int64
	UpdateCount       int64
	UpdateErrors      int64
}
