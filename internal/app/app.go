// Package app wires the repository and services into one container shared
// by the CLI, the TUI and the HTTP server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/thenoetrevino/storyboard/internal/database"
	"github.com/thenoetrevino/storyboard/internal/events"
	boardservice "github.com/thenoetrevino/storyboard/internal/services/board"
	storyservice "github.com/thenoetrevino/storyboard/internal/services/story"
)

// App holds all application services and provides dependency injection.
type App struct {
	db   *sql.DB
	repo database.DataStore

	// Event system for live updates
	eventClient events.EventPublisher
	logger      *slog.Logger

	// Service layer (business logic)
	BoardService boardservice.Service
	StoryService storyservice.Service
}

// New creates a new App with all services initialized.
// This is the single entry point for creating the application container.
func New(db *sql.DB, opts ...Option) *App {
	cfg := &appConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	repo := database.NewRepository(db)
	return &App{
		db:           db,
		repo:         repo,
		eventClient:  cfg.eventClient,
		logger:       cfg.logger,
		BoardService: boardservice.NewService(repo, cfg.eventClient),
		StoryService: storyservice.NewService(repo, cfg.eventClient),
	}
}

// Logger returns the logger the app was configured with
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Ping checks that the database is reachable
func (a *App) Ping(ctx context.Context) error {
	if a.db == nil {
		return errors.New("database not configured")
	}
	return a.db.PingContext(ctx)
}

// Close releases the database connection
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
