package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ortografia/internal/app"
	"ortografia/internal/config"
	"ortografia/internal/logger"
)

func main() {
	cfg := config.Load()
	if err := logger.Configure(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Warn("Logger configuration incomplete", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewLauncher(cfg).Init(ctx)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- rt.Serve()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server stopped", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown incomplete", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
