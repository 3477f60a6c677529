package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"did-backend/internal/app"
	"did-backend/internal/config"
	"did-backend/internal/db"
	"did-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := config.LoadConfig(os.Getenv("CONFIG_PATH")); err != nil {
		logger.Fatalf("❌ Failed to load configuration: %v", err)
	}

	db.InitDB()

	container, err := app.InitializeContainer(logger)
	if err != nil {
		logger.Fatalf("❌ Failed to initialize services: %v", err)
	}
	defer container.Shutdown()

	r := router.SetupRouter(container, logger)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("🚀 Registry API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("❌ Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("❌ Forced shutdown: %v", err)
	}
	logger.Info("👋 Server stopped")
}
