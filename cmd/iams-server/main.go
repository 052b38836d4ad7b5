// Package main provides the asset management API server entry point.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/critsec/iams/pkg/config"
	"github.com/critsec/iams/pkg/db"
	"github.com/critsec/iams/pkg/server"
)

func main() {
	flag.Parse()
	_ = flag.Set("logtostderr", "true")

	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("starting iams server",
		"listen", cfg.ListenAddr,
		"offline", cfg.OfflineMode,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	gormDB, err := db.Connect(cfg, logger)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	srv := server.New(gormDB, cfg, logger)
	if err := db.WithMigrationLock(ctx, gormDB, srv.Migrate); err != nil {
		glog.Fatalf("Failed to migrate schema: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.MountRoutes(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("iams server ready", "listen", cfg.ListenAddr)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("iams server stopped")
}
