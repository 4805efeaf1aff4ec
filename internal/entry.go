// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/assets"
	"github.com/starford/ansuz/internal/blocks"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/remote"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/store"
	docsync "github.com/starford/ansuz/internal/sync"
)

// setup applies options and initializes the structured JSON logger.
func setup(opts []Option) (*Config, *slog.Logger, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// Run executes one synchronization pass with the given options.
func Run(ctx context.Context, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("assets_dir", cfg.Assets.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("format", cfg.Render.Format),
		slog.Bool("force", cfg.Sync.Force),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the asset cache root exists; the cache itself treats a missing
	// root as a precondition failure.
	if err := os.MkdirAll(cfg.Assets.Dir, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	cache, err := assets.New(cfg.Assets.Dir, cfg.Assets.IgnoreCache, logger)
	if err != nil {
		return fmt.Errorf("init asset cache: %w", err)
	}

	extra, err := render.ResolveStages(cfg.Render.Stages)
	if err != nil {
		return fmt.Errorf("resolve render stages: %w", err)
	}

	src := remote.NewNotion(cfg.Notion.Token, cfg.Notion.DatabaseID)
	fetcher := blocks.NewFetcher(src, cache, logger)
	renderer := render.New(fetcher, cache, extra, cfg.Render.Format, logger)
	ctrl := docsync.NewController(src, renderer, db, logger,
		remote.Query{IncludeArchived: cfg.Sync.IncludeArchived}, cfg.Sync.Force)

	logger.Info("Sync starting...", slog.String("database", cfg.Notion.DatabaseID))
	if _, err := ctrl.Run(ctx); err != nil {
		logger.Error("Sync failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Serve runs the read-only preview HTTP server over the synced collection.
func Serve(ctx context.Context, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	apiRouter := api.NewRouter(db, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API under /api; cached assets under the virtual content root.
	r.Mount("/api", apiRouter)
	r.Get(assets.VirtualRoot+"/*", api.NewAssetHandler(cfg.Assets.Dir).ServeFile)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP exposes the synced collection to LLM clients over stdio.
func ServeMCP(_ context.Context, opts ...Option) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(db).ServeStdio()
}
