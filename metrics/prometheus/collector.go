// Package prometheus exports vecload metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/hupe1980/vecload"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Collector implements vecload.MetricsCollector.
type Collector struct {
	rowsTotal      *prometheus.CounterVec
	tableLoads     *prometheus.CounterVec
	tableDuration  *prometheus.HistogramVec
	copyBytesTotal *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportDuration prometheus.Histogram
	exportRows     prometheus.Counter
}

var _ vecload.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
// A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecload_rows_loaded_total",
			Help: "Rows streamed into the copy protocol",
		}, []string{"table"}),
		tableLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecload_table_loads_total",
			Help: "Completed table loads",
		}, []string{"table", "status"}),
		tableDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecload_table_load_duration_seconds",
			Help:    "Duration of table loads",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
		}, []string{"table"}),
		copyBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecload_copy_bytes_total",
			Help: "Bytes of binary copy data sent",
		}, []string{"table"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecload_exports_total",
			Help: "Completed exports",
		}, []string{"status"}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecload_export_duration_seconds",
			Help:    "Duration of exports",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 16),
		}),
		exportRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecload_export_rows_total",
			Help: "Records written by successful exports",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.rowsTotal, c.tableLoads, c.tableDuration, c.copyBytesTotal,
		c.exports, c.exportDuration, c.exportRows,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordRows implements vecload.MetricsCollector.
func (c *Collector) RecordRows(table string, n int64) {
	c.rowsTotal.WithLabelValues(table).Add(float64(n))
}

// RecordTable implements vecload.MetricsCollector.
func (c *Collector) RecordTable(table string, _, bytes int64, duration time.Duration, err error) {
	c.tableLoads.WithLabelValues(table, status(err)).Inc()
	c.tableDuration.WithLabelValues(table).Observe(duration.Seconds())
	c.copyBytesTotal.WithLabelValues(table).Add(float64(bytes))
}

// RecordExport implements vecload.MetricsCollector.
func (c *Collector) RecordExport(rows int64, duration time.Duration, err error) {
	c.exports.WithLabelValues(status(err)).Inc()
	c.exportDuration.Observe(duration.Seconds())
	if err == nil {
		c.exportRows.Add(float64(rows))
	}
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}
