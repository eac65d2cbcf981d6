package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movietracker/backend"
	"movietracker/httpserver"
	"movietracker/memory"
	"movietracker/movie"
	"movietracker/pkg/config"
	"movietracker/pkg/logger"
	"movietracker/pkg/sentry"
	"movietracker/tmdb"
	"movietracker/watchlist"

	sentrygo "github.com/getsentry/sentry-go"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Cannot load config", "error", err)
		os.Exit(1)
	}

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		slog.Error("Cannot init sentry", "error", err)
		os.Exit(1)
	}
	defer sentrygo.Flush(sentry.FlushTime)

	log := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.IsLocal(),
	})
	defer func() { _ = log.Sync() }()

	catalog := tmdb.NewClient(tmdb.Options{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Language:     cfg.TMDB.Language,
		Timeout:      cfg.TMDB.Timeout,
	}, log.Named("tmdb"))
	if !catalog.Configured() {
		log.Warn("TMDB_API_KEY is not set, movie search will answer 400")
	}

	var store watchlist.Backend
	switch cfg.Backend.Mode {
	case config.BackendMemory:
		log.Info("using in-memory watchlist backend")
		store = memory.New()
	default:
		store = backend.NewClient(backend.Options{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		}, log.Named("backend"))
	}

	server, err := httpserver.New(
		httpserver.WithConfig(cfg),
		httpserver.WithLogger(log),
		httpserver.WithCatalog(catalog),
		httpserver.WithMovieService(movie.NewUsecase(catalog, log.Named("movie"))),
		httpserver.WithWatchlistService(watchlist.NewUsecase(store, watchlist.Options{
			ReportUnavailable: cfg.Backend.ReportUnavailable,
		}, log.Named("watchlist"))),
	)
	if err != nil {
		slog.Error("Cannot create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server started!", "addr", server.Addr, "backend", cfg.Backend.Mode)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped with error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped")
}
