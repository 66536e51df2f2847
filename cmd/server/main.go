package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/duoplay/internal/api"
	"github.com/mcoot/duoplay/internal/config"
	"github.com/mcoot/duoplay/internal/factory"
)

func main() {
	confPath := flag.String("config", os.Getenv("DUOPLAY_CONFIG"), "path to a TOML config file")
	flag.Parse()

	settings, err := config.Load(*confPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger, closeLog := newLogger(settings.Log, os.Stdout)
	defer func() { _ = closeLog.Close() }()
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.ConfigFromSettings(settings, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create server
	serverConfig := api.ServerConfig{
		Host:            settings.Server.Host,
		Port:            settings.Server.Port,
		ReadTimeout:     settings.Server.ReadTimeout.Std(),
		WriteTimeout:    settings.Server.WriteTimeout.Std(),
		ShutdownTimeout: settings.Server.ShutdownTimeout.Std(),
	}
	server := api.NewServer(app.Router(), serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", settings.Storage.Type),
	)

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	// Hijacked websockets outlive http.Server.Shutdown; the app closes them
	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		_ = closeLog.Close()
		os.Exit(exitCode)
	}
}
