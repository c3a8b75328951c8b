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

	"github.com/SherClockHolmes/webpush-go"

	"taskboard-backend/config"
	"taskboard-backend/internal/api"
	"taskboard-backend/internal/db"
	"taskboard-backend/internal/notification"
	"taskboard-backend/internal/store"
	"taskboard-backend/internal/task"
	"taskboard-backend/internal/ws"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "taskboard-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret (or SECRET_KEY) must be set")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	registry := notification.NewRegistry()

	dispatcherOpts := []notification.Option{
		notification.WithPushTimeout(cfg.Notification.PushTimeout),
		notification.WithFanout(cfg.Notification.FanoutConcurrency),
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		fallback := notification.NewWebPushFallback(appStore, webpushOptions, cfg.Notification.PushTimeout)
		dispatcherOpts = append(dispatcherOpts, notification.WithOfflineSender(fallback))
		logger.Println("web push fallback enabled")
	} else {
		logger.Println("VAPID keys not configured; offline users get no web push")
	}

	dispatcher := notification.NewDispatcher(appStore, registry, dispatcherOpts...)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, dispatcher)
	pool.Start(ctx)
	logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)

	handler := api.NewHandler(api.Deps{
		Store:    appStore,
		Registry: registry,
		Tasks:    task.NewService(appStore, dispatcher, pool),
		Push:     webpushOptions,
		WebSocket: ws.Options{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
			WriteTimeout: cfg.WebSocket.WriteTimeout,
			ReadLimit:    cfg.WebSocket.ReadLimitBytes,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Shutdown:       ctx,
	})
	router := api.NewRouter(handler, cfg.Server, cfg.Auth)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Live websocket sessions are hijacked and invisible to Shutdown; the
	// cancelled context closes them with a going-away frame.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	pool.Stop()

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Println("Server gracefully stopped")
}
