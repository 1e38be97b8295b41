package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/weekledger/internal/config"
	"github.com/mmynk/weekledger/internal/events"
	"github.com/mmynk/weekledger/internal/ledger"
	"github.com/mmynk/weekledger/internal/metrics"
	"github.com/mmynk/weekledger/internal/retention"
	"github.com/mmynk/weekledger/internal/storage"
	"github.com/mmynk/weekledger/internal/storage/memory"
	"github.com/mmynk/weekledger/internal/storage/sqlite"
	"github.com/mmynk/weekledger/pkg/logging"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Connect and REST server",
		Long: `Start the HTTP server. It serves:
- Connect RPCs under /weekledger.v1.*
- the REST routes used by the browser frontend
- Prometheus metrics on /metrics when METRICS_ENABLED is true

Archived records older than RETENTION_WINDOW are purged once at startup.`,
		RunE: runServe,
	}
}

// setup loads and validates configuration and installs the default logger.
func setup() (*config.Config, error) {
	cfg := config.Load()
	logging.SetupWith(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore returns the configured store. A SQLite file that cannot be
// opened is logged and retried on each request instead of stopping the
// server.
func openStore(cfg *config.Config) storage.Store {
	if cfg.DataBackend == config.BackendMemory {
		slog.Info("Storage initialized", "backend", cfg.DataBackend)
		return memory.New(time.Now)
	}

	lazy := storage.NewLazy(func() (storage.Store, error) {
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("Storage initialized", "backend", cfg.DataBackend, "database", cfg.DBPath)
		return store, nil
	})
	if err := lazy.Open(); err != nil {
		slog.Error("Storage initialization failed, retrying on demand", "database", cfg.DBPath, "error", err)
	}
	return lazy
}

// openPublisher connects to AMQP when configured. A broker that cannot be
// reached disables events rather than preventing startup.
func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Noop{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Warn("AMQP unavailable, events disabled", "exchange", cfg.AMQPExchange, "error", err)
		return events.Noop{}
	}
	slog.Info("Publishing events", "exchange", cfg.AMQPExchange)
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	defer store.Close()

	publisher := openPublisher(cfg)
	defer publisher.Close()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	l := ledger.New(store,
		ledger.WithPublisher(publisher),
		ledger.WithMetrics(m),
		ledger.WithRetention(cfg.RetentionWindow),
	)

	sweeper := retention.NewSweeper(l)
	sweeper.RunOnce(ctx)

	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		gatherer = reg
	}
	handler := newHandler(cfg, l, m, gatherer)

	srv := &http.Server{
		Addr: cfg.Addr(),
		// h2c serves HTTP/2 without TLS for gRPC clients
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx, cfg.RetentionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped gracefully")
	return nil
}
