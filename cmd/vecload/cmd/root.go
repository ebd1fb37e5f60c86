package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/vecload"
	"github.com/hupe1980/vecload/config"
	vecprom "github.com/hupe1980/vecload/metrics/prometheus"
	"github.com/hupe1980/vecload/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg     *config.Config
	logger  *vecload.Logger
	metrics vecload.MetricsCollector
	rc      *resource.Controller
	server  *http.Server
}

type appKey struct{}

func fromContext(ctx context.Context) *app {
	a, _ := ctx.Value(appKey{}).(*app)
	return a
}

// options returns the library options derived from the configuration.
// options returns the library options for a command working on the dataset
// at location.
func (a *app) options(location string) []vecload.Option {
	return []vecload.Option{
		vecload.WithLogger(a.logger.WithDataset(location)),
		vecload.WithMetricsCollector(a.metrics),
		vecload.WithResourceController(a.rc),
		vecload.WithProgressInterval(a.cfg.Load.ProgressInterval),
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vecload",
		Short: "Prepare ANN benchmark datasets and load them into PostgreSQL",
		Long: `vecload converts ANN benchmark files into fvecs/ivecs datasets and bulk-loads
them into PostgreSQL tables with a vector column using the binary COPY protocol.

Datasets live in a local directory or under a prefix of an S3 or MinIO bucket,
selected by storage.backend in the configuration file.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return teardown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to the configuration file (default "+config.GetDefaultConfigPath()+" if it exists)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.String("storage", "", "Storage backend: local, s3 or minio")

	root.AddCommand(
		newImportHDF5Cmd(),
		newLoadCmd(),
		newVerifyCmd(),
		newEncodeCmd(),
		newDumpCmd(),
	)
	return root
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}
	var logger *vecload.Logger
	if cfg.Logging.Format == "json" {
		logger = vecload.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	} else {
		logger = vecload.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}
	logger = logger.WithRunID(ksuid.New().String())

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: vecload.NoopMetricsCollector{},
		rc:      resource.NewController(cfg.Resources()),
	}

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}

	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
	return nil
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg := config.DefaultConfig()
	switch {
	case path != "":
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case config.ConfigExists(config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &cfg.Logging.Level},
		{"log-format", &cfg.Logging.Format},
		{"metrics-addr", &cfg.Metrics.Addr},
		{"storage", &cfg.Storage.Backend},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst, _ = flags.GetString(o.flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector, err := vecprom.New(reg)
	if err != nil {
		return err
	}
	a.metrics = collector

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func teardown(ctx context.Context) error {
	a := fromContext(ctx)
	if a == nil || a.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
