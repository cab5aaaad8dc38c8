// Package server exposes the board and story services over a JSON REST API
// with a server-sent event stream per board.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/cache"
	"github.com/thenoetrevino/storyboard/internal/events"
	"github.com/thenoetrevino/storyboard/internal/export"
)

// DefaultHeartbeat is the interval of keep-alive comments on event streams
const DefaultHeartbeat = 15 * time.Second

// Options holds the optional collaborators of a Server
type Options struct {
	// Bus feeds /stream; streams answer 503 without it
	Bus *events.Bus
	// Cache serves story lists; nil reads straight from the store
	Cache *cache.StoryCache
	// Deduper enables Idempotency-Key on story creation
	Deduper   *cache.Deduper
	Export    export.Options
	Logger    *slog.Logger
	Heartbeat time.Duration
}

// Server is the HTTP front of an App
type Server struct {
	app        *app.App
	echo       *echo.Echo
	bus        *events.Bus
	cache      *cache.StoryCache
	deduper    *cache.Deduper
	exportOpts export.Options
	metrics    *Metrics
	logger     *slog.Logger
	heartbeat  time.Duration

	done     chan struct{}
	doneOnce sync.Once
}

// New builds a server with every route registered
func New(a *app.App, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = a.Logger()
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}

	s := &Server{
		app:        a,
		echo:       e,
		bus:        opts.Bus,
		cache:      opts.Cache,
		deduper:    opts.Deduper,
		exportOpts: opts.Export,
		metrics:    NewMetrics(),
		logger:     logger,
		heartbeat:  heartbeat,
		done:       make(chan struct{}),
	}
	e.HTTPErrorHandler = s.handleError
	s.middleware()
	s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Metrics returns the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open event streams and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })
	return s.echo.Shutdown(ctx)
}

// stories returns the cached lister when one is configured
func (s *Server) stories() export.StoryLister {
	if s.cache != nil {
		return s.cache
	}
	return s.app.StoryService
}

func (s *Server) evict(ctx context.Context, boardID int) {
	if s.cache == nil {
		return
	}
	s.cache.Evict(ctx, boardID)
	s.metrics.IncCacheEvictions()
}
