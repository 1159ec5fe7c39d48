// Package server exposes query scoring over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
)

// LoadFunc loads the catalog served by the API.
type LoadFunc func(ctx context.Context) (*catalog.Catalog, error)

// Config holds configuration for the API server.
type Config struct {
	Port int
	// Watch reloads the catalog when WatchPath changes.
	Watch     bool
	WatchPath string
	Load      LoadFunc
	Options   bench.Options
	Logger    *slog.Logger
}

// Server is the scoring API server.
type Server struct {
	port      int
	watch     bool
	watchPath string
	load      LoadFunc
	opts      bench.Options
	logger    *slog.Logger
	notifier  *notifier

	catalog atomic.Pointer[catalog.Catalog]
}

// debounce is how long the watcher waits for writes to settle.
const debounce = 100 * time.Millisecond

// NewServer creates a server and loads its catalog.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Load == nil {
		return nil, errors.New("server: no catalog loader")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:      cfg.Port,
		watch:     cfg.Watch,
		watchPath: cfg.WatchPath,
		load:      cfg.Load,
		opts:      cfg.Options,
		logger:    logger,
		notifier:  newNotifier(),
	}
	if s.opts.Logger == nil {
		s.opts.Logger = logger
	}

	cat, err := cfg.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	s.catalog.Store(cat)
	return s, nil
}

// Catalog returns the catalog currently served.
func (s *Server) Catalog() *catalog.Catalog {
	return s.catalog.Load()
}

// Reload loads the catalog again. On failure the previous catalog stays in
// service. Listeners are told either way.
func (s *Server) Reload(ctx context.Context) error {
	cat, err := s.load(ctx)
	ev := ReloadEvent{At: time.Now().UTC()}
	if err != nil {
		ev.Error = err.Error()
		ev.Databases = s.Catalog().Len()
		s.logger.Error("catalog reload failed", slog.String("error", err.Error()))
	} else {
		s.catalog.Store(cat)
		ev.Databases = cat.Len()
		s.logger.Info("catalog reloaded", slog.Int("databases", cat.Len()))
	}
	s.notifier.broadcast(ev)
	return err
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(s.logger),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/databases", s.handleDatabases)
		r.Get("/databases/{db}", s.handleDatabase)
		r.Post("/match", s.handleMatch)
		r.Post("/exec", s.handleExec)
		r.Post("/parse", s.handleParse)
		r.Get("/events", s.handleEvents)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", slog.String("addr", fmt.Sprintf("http://localhost:%d", s.port)))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.watchPath != "" {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchFiles reloads the catalog when the watched file changes. The parent
// directory is watched so editors that replace the file are seen.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.watchPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch catalog", slog.String("path", target), slog.String("error", err.Error()))
		return nil
	}
	s.logger.Debug("watching catalog", slog.String("path", target))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				s.logger.Debug("catalog changed", slog.String("file", event.Name))
				_ = s.Reload(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
