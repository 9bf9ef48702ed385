// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/resumectl/internal/api"
	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/mcpserver"
	"github.com/starford/resumectl/internal/metrics"
	"github.com/starford/resumectl/internal/resumeservice"
	"github.com/starford/resumectl/internal/sse"
	pkgconfig "github.com/starford/resumectl/pkg/config"
)

const configReloadDebounce = 500 * time.Millisecond

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger installs a JSON logger writing to w as the default and returns
// it with the LevelVar that controls it.
func newLogger(w io.Writer, level slog.Level) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(level)
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)
	return logger, lv
}

// openDatabase opens the SQLite database and seeds the configured sections.
func openDatabase(ctx context.Context, cfg *Config) (*database.DB, error) {
	db, err := database.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.SeedSections(ctx, cfg.Sections.Seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed sections: %w", err)
	}
	return db, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, level := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Any("sections", cfg.Sections.Seed),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.ListThrottle)
	defer broker.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	svc := resumeservice.New(db, tokens,
		resumeservice.WithEvents(metrics.CountingPublisher{Next: broker, Metrics: httpMetrics}),
		resumeservice.WithLogger(logger),
		resumeservice.WithSectionsTTL(cfg.Cache.SectionsTTL),
		resumeservice.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	apiRouter := api.NewRouter(svc, tokens, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", httpMetrics.Handler())

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Live log level reload.
	if app.configPath != "" {
		g.Go(func() error {
			return pkgconfig.Watch(gCtx, app.configPath, configReloadDebounce, logger, func() {
				reloadLogLevel(app.configPath, level, logger)
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open SSE streams end when the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the remaining errgroup goroutines once the server is
// shutting down.
var errShutdown = errors.New("shutdown")

// reloadLogLevel re-reads the configuration file and applies its log level.
// An invalid file leaves the current level in place.
func reloadLogLevel(path string, level *slog.LevelVar, logger *slog.Logger) {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(path, next); err != nil {
		logger.Warn("config reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if next.App.LogLevel == level.Level() {
		return
	}
	logger.Info("log level changed",
		slog.String("from", level.Level().String()),
		slog.String("to", next.App.LogLevel.String()))
	level.Set(next.App.LogLevel)
}

// RunMCP serves the MCP tools over stdio for the configured user. Logs go to
// stderr because stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if err := cfg.MCP.Validate(); err != nil {
		return err
	}

	logger, _ := newLogger(os.Stderr, cfg.App.LogLevel)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	svc := resumeservice.New(db, tokens,
		resumeservice.WithLogger(logger),
		resumeservice.WithSectionsTTL(cfg.Cache.SectionsTTL),
	)

	logger.Info("MCP server starting",
		slog.String("username", cfg.MCP.Username),
		slog.String("sqlite_path", cfg.SQLite.Path))
	return mcpserver.New(svc, cfg.MCP.Username, app.version).ServeStdio()
}
