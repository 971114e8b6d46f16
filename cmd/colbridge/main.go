package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/bridge"
	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/observability"
)

var version = "0.1.0"

// GlobalFlags are the flags shared by every command.
type GlobalFlags struct {
	ConfigFile  string
	LogLevel    string
	MetricsAddr string
	Trace       bool
	Resources   bool
}

// app holds what the persistent hooks set up and tear down.
type app struct {
	flags    GlobalFlags
	cfg      *config.Config
	log      *zap.Logger
	server   *http.Server
	shutdown func(context.Context) error
}

func main() {
	// COLBRIDGE_* overrides may come from a .env file
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "colbridge",
		Short: "colbridge - columnar conversions for host values",
		Long: `colbridge converts JSON documents into typed columns and frames, and writes
them back out as raw typed buffers or Arrow IPC files.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.ConfigFile, "config", "c", "", "Path to a YAML, JSON or TOML configuration file")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
	pf.StringVar(&a.flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address until interrupted")
	pf.BoolVar(&a.flags.Trace, "trace", false, "Export trace spans to stderr")
	pf.BoolVar(&a.flags.Resources, "resources", false, "Log process memory and CPU usage when the command finishes")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "colbridge v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newInspectCmd(a), newEncodeCmd(a), newExportCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.flags.ConfigFile)
	if err != nil {
		return err
	}
	if a.flags.LogLevel != "" {
		cfg.Logging.Level = a.flags.LogLevel
	}
	if a.flags.MetricsAddr != "" {
		cfg.Metrics.Address = a.flags.MetricsAddr
	}
	if a.flags.Trace {
		cfg.Tracing.Enabled = true
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	}); err != nil {
		return err
	}
	a.log = logger.With(zap.String("component", "cli"), zap.String("command", cmd.Name()))

	if cfg.Metrics.Enabled {
		metrics.Install(metrics.NewCollector(cfg.Metrics.Namespace))
	} else {
		metrics.Install(nil)
	}

	observability.Version = version
	a.shutdown, err = observability.InitTracing(cfg.Tracing, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	bridge.Configure(cfg)

	if cfg.Metrics.Address != "" {
		a.serveMetrics(cfg.Metrics.Address)
	}
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	a.log.Info("serving metrics", zap.String("addr", addr))
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.flags.Resources {
		logResources(a.log)
	}

	if a.server != nil {
		a.log.Info("command finished, serving metrics until interrupted")
		<-cmd.Context().Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.log.Warn("metrics server shutdown", zap.Error(err))
		}
	}

	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			return err
		}
	}
	_ = logger.Sync()
	return nil
}
