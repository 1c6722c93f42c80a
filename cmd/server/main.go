package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"timezone-lookup-service/internal/api"
	"timezone-lookup-service/internal/app"
	"timezone-lookup-service/internal/config"
	"timezone-lookup-service/internal/platform/obs"

	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (TimeZoneDB or tzf, SQL or Redis caches) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal(err)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is done or the listener fails. Resources opened here
// are released before it returns.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()

	router := api.NewRouter(a.Service)

	// Write timeout covers a slow upstream plus any configured retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Duration(cfg.TimezoneDB.MaxAttempts)*cfg.TimezoneDB.Timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("provider", cfg.Provider),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("cache", cfg.Cache.Backend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
