package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/simmat/metrics/prometheus"
	"github.com/hupe1980/simmat/resource"
	"github.com/hupe1980/simmat/run"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is the application version.
var version = "0.1.0"

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg     Config
	rc      *run.Context
	metrics *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "simmat",
		Short: "Build and query paged sparse similarity matrices.",
		Long: `simmat persists sparse "neighbor list per entity" matrices in a paged
binary format, transposes them out of core, computes top-K cosine
similarity lists and ships finished files to blob storage.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./simmat.yaml or $HOME/.config/simmat/simmat.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	pf.Int64("memory-limit", 0, "memory limit in bytes shared by all stages (0 = unlimited)")
	pf.Int64("io-limit", 0, "scan and transfer throughput limit in bytes per second (0 = unlimited)")
	pf.String("store", "local", "blob store: local, s3 or minio")
	pf.String("store-path", "blobs", "root directory of the local blob store")

	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("metrics.addr", pf.Lookup("metrics-addr"))
	_ = a.v.BindPFlag("resources.memory_limit", pf.Lookup("memory-limit"))
	_ = a.v.BindPFlag("resources.io_limit", pf.Lookup("io-limit"))
	_ = a.v.BindPFlag("store.type", pf.Lookup("store"))
	_ = a.v.BindPFlag("store.path", pf.Lookup("store-path"))

	rootCmd.AddCommand(
		newBuildCmd(a),
		newInspectCmd(a),
		newTransposeCmd(a),
		newSimilarityCmd(a),
		newPublishCmd(a),
		newFetchCmd(a),
		newListCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup loads configuration and builds the run context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := run.NewTextLogger(level)
	switch cfg.Log.Format {
	case "text", "":
	case "json":
		logger = run.NewJSONLogger(level)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}

	reg := prom.NewRegistry()
	opts := []run.Option{
		run.WithLogger(logger),
		run.WithMetrics(prometheus.NewCollector(reg)),
		run.WithResources(resource.NewController(resource.Config{
			MemoryLimitBytes:   cfg.Resources.MemoryLimit,
			MaxConcurrentRuns:  cfg.Resources.MaxRuns,
			IOLimitBytesPerSec: cfg.Resources.IOLimit,
		})),
	}
	if a.verbose {
		errOut := cmd.ErrOrStderr()
		opts = append(opts, run.WithProgress(func(stage string, done, total int64) {
			fmt.Fprintf(errOut, "%s: %d/%d\n", stage, done, total)
		}))
	}
	a.rc = run.New(opts...)

	if cfg.Metrics.Addr != "" {
		return a.serveMetrics(cfg.Metrics.Addr, reg)
	}
	return nil
}

func (a *app) serveMetrics(addr string, reg *prom.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.rc.Log().Error("metrics server stopped", "error", err)
		}
	}()
	a.rc.Log().Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.metrics == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.metrics.Shutdown(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "simmat", version)
		},
	}
}
