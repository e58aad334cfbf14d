package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"resilientrpc/internal/client"
	"resilientrpc/internal/config"
)

// app is the state shared by every subcommand once flags are parsed
type app struct {
	configPath  string
	endpoints   []string
	retry       int
	timeout     time.Duration
	logLevel    string
	metricsAddr string

	cfg        *config.Config
	logger     zerolog.Logger
	client     *client.Client
	metrics    *http.Server
	metricsURL string
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "rpcclient",
		Short:         "Resilient JSON-RPC client",
		Long:          "Send JSON-RPC calls over HTTP to a pool of endpoints with per-attempt timeouts and bounded retry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to config file (JSON or YAML)")
	flags.StringArrayVarP(&a.endpoints, "endpoint", "e", nil, "endpoint URL, repeatable; replaces configured endpoints")
	flags.IntVarP(&a.retry, "retry", "r", config.DefaultRetryMaxAttempts, "retry budget per call")
	flags.DurationVarP(&a.timeout, "timeout", "t", 0, "per-attempt timeout (default from config, 60s)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(newCallCmd(a), newBatchCmd(a), newBlockCmd(a), newConvertCmd())
	return root, a
}

// execute runs the command tree and releases whatever setup started,
// including when the command itself fails
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if shutdownErr := a.shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

// setup resolves the configuration, then builds the logger, client and metrics server
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if len(a.endpoints) > 0 {
		cfg.Endpoints = a.endpoints
	}
	if flags.Changed("retry") {
		cfg.RetryMaxAttempts = a.retry
	}
	if flags.Changed("timeout") {
		ms, err := timeoutMillis(a.timeout)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = ms
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.metricsAddr != "" {
		cfg.MetricsAddr = a.metricsAddr
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(cfg.Endpoints) == 0 {
		return errors.New("no endpoints configured, use --endpoint or a config file")
	}

	a.cfg = cfg
	a.logger = setupLogger(cfg.LogLevel)

	var opts []client.Option
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		opts = append(opts, client.WithMetrics(reg))
		if err := a.serveMetrics(cfg.MetricsAddr, reg); err != nil {
			return err
		}
	}

	c, err := client.New(cfg, a.logger, opts...)
	if err != nil {
		return err
	}
	a.client = c

	a.logger.Debug().
		Strs("endpoints", cfg.Endpoints).
		Int("retryMaxAttempts", cfg.RetryMaxAttempts).
		Dur("requestTimeout", cfg.GetRequestTimeoutDuration()).
		Msg("client ready")
	return nil
}

// timeoutMillis converts --timeout to config milliseconds, rounding up so a
// sub-millisecond value never reads as zero
func timeoutMillis(d time.Duration) (int, error) {
	if d <= 0 {
		return 0, fmt.Errorf("--timeout must be positive, got %s", d)
	}
	return int((d + time.Millisecond - 1) / time.Millisecond), nil
}

// serveMetrics exposes /metrics until shutdown
func (a *app) serveMetrics(addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics address: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	a.metricsURL = "http://" + ln.Addr().String() + "/metrics"
	a.logger.Info().Str("url", a.metricsURL).Msg("serving metrics")
	return nil
}

func (a *app) shutdown() error {
	if a.metrics == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.metrics.Shutdown(ctx)
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	// stdout carries results, so logs go to stderr
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).Level(logLevel).With().Timestamp().Logger()
}
