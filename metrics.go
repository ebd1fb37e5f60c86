package vecload

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordRows is called periodically while a table loads.
	// n is the number of rows delivered since the previous call.
	RecordRows(table string, n int64)

	// RecordTable is called after each table load.
	// rows and bytes describe what was copied, err is nil if successful.
	RecordTable(table string, rows, bytes int64, duration time.Duration, err error)

	// RecordExport is called after each export.
	// rows is the total number of records written across all files.
	RecordExport(rows int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRows(string, int64)                               {}
func (NoopMetricsCollector) RecordTable(string, int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordExport(int64, time.Duration, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RowsLoaded       atomic.Int64
	TableCount       atomic.Int64
	TableErrors      atomic.Int64
	TableBytes       atomic.Int64
	TableTotalNanos  atomic.Int64
	ExportCount      atomic.Int64
	ExportErrors     atomic.Int64
	ExportRows       atomic.Int64
	ExportTotalNanos atomic.Int64
}

// RecordRows implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRows(_ string, n int64) {
	b.RowsLoaded.Add(n)
}

// RecordTable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTable(_ string, _, bytes int64, duration time.Duration, err error) {
	b.TableCount.Add(1)
	b.TableBytes.Add(bytes)
	b.TableTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TableErrors.Add(1)
	}
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(rows int64, duration time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExportErrors.Add(1)
		return
	}
	b.ExportRows.Add(rows)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RowsLoaded:     b.RowsLoaded.Load(),
		TableCount:     b.TableCount.Load(),
		TableErrors:    b.TableErrors.Load(),
		TableBytes:     b.TableBytes.Load(),
		TableAvgNanos:  avg(b.TableTotalNanos.Load(), b.TableCount.Load()),
		ExportCount:    b.ExportCount.Load(),
		ExportErrors:   b.ExportErrors.Load(),
		ExportRows:     b.ExportRows.Load(),
		ExportAvgNanos: avg(b.ExportTotalNanos.Load(), b.ExportCount.Load()),
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
	RowsLoaded     int64
	TableCount     int64
	TableErrors    int64
	TableBytes     int64
	TableAvgNanos  int64
	ExportCount    int64
	ExportErrors   int64
	ExportRows     int64
	ExportAvgNanos int64
}
