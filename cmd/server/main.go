package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/cardhall/seatscore/internal/config"
	"github.com/cardhall/seatscore/internal/database"
	"github.com/cardhall/seatscore/internal/migrations"
	"github.com/cardhall/seatscore/internal/remote"
	"github.com/cardhall/seatscore/internal/server"
	"github.com/cardhall/seatscore/internal/tracker"
)

func main() {
	// Missing .env files are fine; the environment wins anyway.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if dir := filepath.Dir(cfg.DBPath); dir != "." && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Tracker ---
	broker := server.NewBroker()
	tr, err := tracker.New(ctx, tracker.Config{
		Store:        tracker.NewSQLiteStore(db),
		Logger:       logger,
		Clock:        clockwork.NewRealClock(),
		ScanCooldown: cfg.ScanCooldown,
		Notify:       broker.Publish,
	})
	if err != nil {
		return fmt.Errorf("loading tracker state: %w", err)
	}

	// --- Remote sync ---
	client := remote.NewClient(cfg.RemoteURL, cfg.RemoteMode)
	syncer := remote.NewSyncer(client, tr, logger, clockwork.NewRealClock(), cfg.PollInterval)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, tr, syncer, broker, db, cfg.SPADir)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	if cfg.RemoteURL != "" {
		g.Go(func() error {
			logger.Info("starting remote poll loop", "url", cfg.RemoteURL, "interval", cfg.PollInterval)
			return syncer.Run(gctx)
		})
	} else {
		logger.Warn("REMOTE_URL not set, remote sync disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
