package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kelseyhightower/envconfig"

	"github.com/cinedash/cinedash/handlers"
	"github.com/cinedash/cinedash/lib/dataset"
	"github.com/cinedash/cinedash/lib/db"
	"github.com/cinedash/cinedash/lib/health"
	"github.com/cinedash/cinedash/lib/store"
	"github.com/cinedash/cinedash/lib/watch"
)

// Config is read from the environment; every field has a default so a bare
// run next to movie_database.csv needs no configuration at all.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	CSVPath  string `envconfig:"CSV_PATH" default:"movie_database.csv"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Watch    bool   `envconfig:"WATCH" default:"true"`
}

type App struct {
	cfg     Config
	logger  *slog.Logger
	store   *store.Store
	watcher *watch.Watcher
	router  *chi.Mux
}

func NewApp(cfg Config, logger *slog.Logger) (*App, error) {
	gdb, err := db.Open("cinedash", logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(gdb, logger); err != nil {
		return nil, err
	}

	// The initial load is all-or-nothing: any failure means no dashboard.
	movies, err := dataset.Load(cfg.CSVPath)
	if err != nil {
		return nil, err
	}

	s := store.New(gdb, logger)
	if err := s.Reload(context.Background(), movies); err != nil {
		return nil, fmt.Errorf("failed to load initial dataset: %w", err)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		store:  s,
		router: chi.NewRouter(),
	}

	if cfg.Watch {
		watcher, err := watch.New(cfg.CSVPath, app.reloadDataset, logger)
		if err != nil {
			return nil, err
		}
		app.watcher = watcher
	}

	app.setupRoutes()
	return app, nil
}

func (a *App) setupRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)

	a.router.Get("/", handlers.HandleDashboard(a.store))
	a.router.Get("/api/summary", handlers.HandleSummary(a.store))
	a.router.Get("/api/franchises", handlers.HandleFranchises(a.store))
	a.router.Get("/healthz", health.Check(a.store))
}

// reloadDataset re-reads the source file after the watcher reports a change.
// A failed reload keeps serving the previous dataset.
func (a *App) reloadDataset() {
	movies, err := dataset.Load(a.cfg.CSVPath)
	if err != nil {
		a.logger.Error("Reload failed, keeping previous dataset",
			slog.String("path", a.cfg.CSVPath), slog.Any("error", err))
		return
	}
	if err := a.store.Reload(context.Background(), movies); err != nil {
		a.logger.Error("Reload failed, keeping previous dataset",
			slog.String("path", a.cfg.CSVPath), slog.Any("error", err))
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("Failed to read configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	app, err := NewApp(cfg, logger)
	if err != nil {
		logger.Error("Startup failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.watcher != nil {
		go app.watcher.Start(ctx)
		defer app.watcher.Close()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			slog.String("port", cfg.Port),
			slog.String("csv", cfg.CSVPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", slog.Any("error", err))
	}
	logger.Info("Server stopped")
}
