// Command storyboardd serves boards over the REST API with live event streams
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/cache"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/export"
	"github.com/thenoetrevino/storyboard/internal/logging"
	"github.com/thenoetrevino/storyboard/internal/server"
)

const (
	eventBuffer    = 64
	idempotencyTTL = 24 * time.Hour
)

func main() {
	if err := run(); err != nil {
		slog.Error("storyboardd failed", "error", err)
		fmt.Fprintf(os.Stderr, "storyboardd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFile, err := logging.Init("storyboardd", logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	db, err := database.InitDB(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewBus(eventBuffer)
	defer bus.Close()

	a := app.New(db, app.WithEventPublisher(bus), app.WithLogger(slog.Default()))
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	opts := server.Options{
		Bus:    bus,
		Export: export.Options{EmailDomain: cfg.Export.MemberEmailDomain},
		Logger: slog.Default(),
	}

	if cfg.Server.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.Server.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer func() { _ = rdb.Close() }()

		// The cache degrades to direct reads, so an unreachable redis is only a warning
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, continuing", "addr", redisOpts.Addr, "error", err)
		}
		opts.Cache = cache.NewStoryCache(a.StoryService, rdb, cfg.Server.CacheTTL)
		opts.Deduper = cache.NewDeduper(rdb, idempotencyTTL)
	}

	srv := server.New(a, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("storyboardd shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("storyboardd starting", "addr", cfg.Server.Addr, "db", cfg.DatabasePath, "pid", os.Getpid())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
