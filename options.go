package vecload

import (
	"log/slog"

	"github.com/hupe1980/vecload/internal/compress"
	"github.com/hupe1980/vecload/resource"
)

// Compression selects the codec applied to container files written by Export.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionZSTD = compress.ZSTD
	CompressionLZ4  = compress.LZ4
)

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(name string) (Compression, error) {
	return compress.Parse(name)
}

// DefaultProgressInterval is the number of rows between progress reports.
const DefaultProgressInterval = 100_000

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rc               *resource.Controller
	force            bool

	// Export
	blockSize   int
	compression Compression

	// Load
	name             string
	progressInterval int64
}

// Option configures Export and Load.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecload.BasicMetricsCollector{}
//	_, _ = vecload.Load(ctx, store, dialer, vecload.WithName("sift"), vecload.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Tables: %d, Rows: %d\n", stats.TableCount, stats.RowsLoaded)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds block buffer memory, concurrent connections
// and copy throughput. Without one, nothing is limited.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithForce replaces existing data: Export removes an existing dataset and
// Load drops existing tables.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithBlockSize makes Export read train vectors n rows at a time, with the
// remainder read row by row. 0 reads every row individually.
func WithBlockSize(n int) Option {
	return func(o *options) {
		o.blockSize = n
	}
}

// WithCompression sets the codec for container files written by Export.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithName sets the table prefix used by Load. Tables are {name}_train and
// {name}_test.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithProgressInterval sets how many rows pass between progress reports
// during Load. Non-positive values disable progress reports.
func WithProgressInterval(n int64) Option {
	return func(o *options) {
		o.progressInterval = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		progressInterval: DefaultProgressInterval,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
