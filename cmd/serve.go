package main

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

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/campus-events/internal/auth"
	"github.com/Shivanand-hulikatti/campus-events/internal/config"
	"github.com/Shivanand-hulikatti/campus-events/internal/database"
	"github.com/Shivanand-hulikatti/campus-events/internal/handler"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository/postgres"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("database connected", "driver", cfg.Driver)

	if err := database.Migrate(cfg.Driver, migrationURL(cfg)); err != nil {
		return err
	}

	tp, err := telemetry.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	creds, err := auth.NewMemoryStore(cfg.AdminPassword, 0)
	if err != nil {
		return fmt.Errorf("admin credentials: %w", err)
	}

	opts := service.Options{TxTimeout: cfg.Tx.Timeout, MaxAttempts: cfg.Tx.MaxAttempts}
	h := handler.New(store,
		service.NewEventService(store, opts),
		service.NewRegistrationService(store, opts),
		service.NewCheckInService(store, opts),
		auth.NewService(creds),
	)

	webDir := cfg.WebDir
	if info, err := os.Stat(webDir); err != nil || !info.IsDir() {
		slog.Info("static web directory not found, serving API only", "dir", webDir)
		webDir = ""
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(h, webDir),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "tracing", tp.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, c config.Config) (repository.Store, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return sqlite.Open(c.SQLite.Path, c.Tx.Timeout)
	default:
		pool, err := database.NewPool(ctx, c.Postgres)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return postgres.NewStore(pool), nil
	}
}
