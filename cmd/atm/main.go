// Command atm runs the interactive ATM console against an in-memory, Redis or
// SQL card directory, and provisions cards into the persistent back-ends.
//
// Running without a subcommand starts the console.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	goATM "github.com/MrEthical07/goATM"
	"github.com/MrEthical07/goATM/internal/config"
	"github.com/MrEthical07/goATM/internal/driver"
	"github.com/MrEthical07/goATM/internal/i18n"
	"github.com/MrEthical07/goATM/internal/logging"
	atmotel "github.com/MrEthical07/goATM/metrics/export/otel"
	"github.com/MrEthical07/goATM/metrics/export/prometheus"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state resolved once in PersistentPreRunE.
type app struct {
	cfgFile string
	file    config.File
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "atm",
		Short: "ATM simulator with PIN lockout",
		Long: `atm simulates a single cash machine: insert a card, enter the PIN,
then check the balance, deposit or withdraw. Three wrong PINs lock the card.

Running without a subcommand starts the interactive console.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Version = version

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./atm.yaml or $XDG_CONFIG_HOME/atm/atm.yaml)")
	flags.String("lang", "en", `console language ("en", "de")`)
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("backend", "memory", `card directory back-end ("memory", "redis", "sql")`)
	flags.String("redis-addr", "", "redis address; empty starts an embedded miniredis")
	flags.String("db-type", "sqlite", `database type for the sql back-end ("sqlite", "postgres", "mysql")`)
	flags.String("dsn", "./atm.db", "database connection string for the sql back-end")
	flags.Int("max-pin-attempts", goATM.DefaultConfig().Security.MaxPINAttempts, "wrong PINs before a card locks")
	flags.Bool("single-txn", false, "return the card after one deposit or withdrawal")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	flags.String("otel-file", "", "append OpenTelemetry metrics as JSON to this file")

	cmd.AddCommand(
		newRunCmd(a),
		newProvisionCmd(a),
		newHashPINCmd(a),
		newInitConfigCmd(a),
		newSecurityReportCmd(a),
	)
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	f, err := config.Load(cmd.Flags(), a.cfgFile)
	if err != nil {
		return err
	}
	a.file = f
	a.logger = logging.New(cmd.ErrOrStderr(), f.LogLevel)
	return nil
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// buildMachine opens the directory, seeds it and assembles a Machine. The
// returned cleanup is never nil.
func (a *app) buildMachine(ctx context.Context) (*goATM.Machine, func(), error) {
	cfg, err := a.file.Machine()
	if err != nil {
		return nil, func() {}, err
	}

	store, cleanup, err := openStore(ctx, a.file.Directory, a.logger)
	if err != nil {
		return nil, cleanup, err
	}
	if err := seedStore(ctx, store, cfg.PIN, a.file.Seed, a.logger); err != nil {
		return nil, cleanup, err
	}

	m, err := goATM.New().
		WithConfig(cfg).
		WithDirectory(store).
		WithLogger(a.logger).
		Build()
	if err != nil {
		return nil, cleanup, err
	}
	return m, cleanup, nil
}

func (a *app) run(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	m, cleanup, err := a.buildMachine(ctx)
	defer cleanup()
	if err != nil {
		return err
	}

	catalog, err := i18n.New(a.file.Language)
	if err != nil {
		return err
	}

	if addr := a.file.Metrics.Addr; addr != "" {
		shutdown := serveMetrics(addr, m, a.logger)
		defer shutdown()
	}
	if path := a.file.Metrics.OTelFile; path != "" {
		shutdown, err := writeOTelMetrics(path, a.file.Metrics.OTelInterval, m, a.logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	opts := []driver.Option{
		driver.WithCatalog(catalog),
		driver.WithLogger(a.logger),
	}
	if f, ok := in.(*os.File); ok && driver.IsTerminal(int(f.Fd())) {
		opts = append(opts, driver.WithPINReader(driver.TerminalPINReader(int(f.Fd()), out)))
	}

	return driver.New(m, in, out, opts...).Run(ctx)
}

// serveMetrics exposes the machine counters at /metrics until shutdown is
// called.
func serveMetrics(addr string, m *goATM.Machine, logger *log.Logger) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.New(m).Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warnf("metrics server shutdown: %v", err)
		}
	}
}

// writeOTelMetrics exports the machine through OpenTelemetry as JSON lines
// appended to path every interval. shutdown flushes a final collection.
func writeOTelMetrics(path string, interval time.Duration, m *goATM.Machine, logger *log.Logger) (shutdown func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open otel metrics file: %w", err)
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create otel exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	if _, err := atmotel.New(provider.Meter("github.com/MrEthical07/goATM"), m); err != nil {
		_ = provider.Shutdown(context.Background())
		_ = f.Close()
		return nil, err
	}
	logger.Infof("writing otel metrics to %s every %s", path, interval)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warnf("otel metrics shutdown: %v", err)
		}
		_ = f.Close()
	}, nil
}

func printf(w io.Writer, format string, v ...interface{}) {
	_, _ = fmt.Fprintf(w, format, v...)
}
