package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ragchat-be/internal/bootstrap"
	"ragchat-be/internal/config"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/server"
	"ragchat-be/internal/tracer"
	"ragchat-be/pkg/ragapi"
)

const mainModule = "Main"

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	// 2. Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)

	// 3. Bootstrap Dependencies (Container)
	ragClient := ragapi.NewHTTPClient(cfg.RAG.BaseURL, cfg.RAG.RequestTimeout)
	container := bootstrap.NewContainer(cfg, sysLogger, ragClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Consumers subscribe before the first request can publish.
	if err := container.Start(ctx); err != nil {
		log.Fatalf("Failed to start background services: %v", err)
	}

	// 5. Run Server
	srv := server.New(cfg, container)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		sysLogger.Info(mainModule, "Shutting down", map[string]interface{}{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			sysLogger.Error(mainModule, "Server stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	// 6. Graceful shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sysLogger.Warn(mainModule, "Server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	cancel()
	if err := container.Close(); err != nil {
		sysLogger.Warn(mainModule, "Container close failed", map[string]interface{}{"error": err.Error()})
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		sysLogger.Warn(mainModule, "Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
