package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx := context.Background()
	app, err := BuildApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	cfg := app.Config

	slog.Info("starting questkitd",
		"environment", cfg.Environment,
		"profile", cfg.Profile,
		"address", cfg.Delivery.Address,
		"storage_adapter", cfg.Storage.Adapter)

	if app.Scheduler != nil {
		app.Scheduler.Start(ctx)
	}

	srv := app.Server

	// Start the delivery endpoint in a goroutine
	go func() {
		slog.Info("notification delivery listening", "address", cfg.Delivery.Address, "path", cfg.Delivery.Path)
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				return
			}
			slog.Error("failed to start delivery endpoint", "error", err)
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down", "timeout", cfg.Delivery.ShutdownTimeout)

	if app.Scheduler != nil {
		app.Scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Delivery.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
		os.Exit(1)
	}

	app.Service.Close()
	slog.Info("stopped")
}
