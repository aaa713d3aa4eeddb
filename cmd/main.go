/*
Package main is the entry point for the Hubchat server.

It is responsible for loading configuration, initializing the global logging
system, connecting to PostgreSQL and object storage, wiring the realtime core
(registry, presence tracker, room index, router, gateway), setting up the HTTP
server, and gracefully handling operating system interrupt signals (SIGINT,
SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hubchat/internal/app/db"
	"hubchat/internal/app/directory"
	"hubchat/internal/app/realtime"
	"hubchat/internal/app/storage"
	"hubchat/internal/app/store"
	"hubchat/internal/configs"
	"hubchat/internal/handler"
	"hubchat/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("max_connections", cfg.MaxConnections).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL and apply migrations.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	dataStore := store.New(pool)

	storageService, err := storage.NewStorageService(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage service")
	}

	// Wire the realtime core. Presence changes are written through to the
	// users table and announced to friends.
	dir := directory.New(dataStore)
	registry := realtime.NewRegistry(cfg.MaxConnections)
	rooms := realtime.NewRoomSet()
	router := realtime.NewRouter(registry, rooms, dir, cfg.DirectoryTimeout)

	persistStatus := func(ctx context.Context, userID string, status realtime.Status, statusMessage string) error {
		return dataStore.SaveUserStatus(ctx, userID, string(status), statusMessage)
	}
	tracker := realtime.NewTracker(cfg.IdleTimeout, cfg.SweepInterval,
		realtime.StatusAnnouncer(router, persistStatus))
	gateway := realtime.NewGateway(registry, tracker, rooms, router, dir, cfg.DirectoryTimeout)

	// Background idle sweep, stopped by the shutdown signal.
	go tracker.Run(ctx)

	deps := &handler.AppDeps{
		Config:  cfg,
		Store:   dataStore,
		Gateway: gateway,
		Storage: storageService,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Hubchat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
