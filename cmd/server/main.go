package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/scimfile/internal/config"
	"github.com/JonMunkholm/scimfile/internal/directory"
	"github.com/JonMunkholm/scimfile/internal/logging"
	"github.com/JonMunkholm/scimfile/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"users_file", cfg.Directory.UsersFilePath,
		"mapping_file", cfg.Directory.MappingFile,
		"processed_folder", cfg.Directory.ProcessedFolder,
		"refresh_interval", cfg.Directory.RefreshInterval.String(),
		"rate_limit_enabled", cfg.Rate.Enabled,
		"api_key_required", cfg.Security.RequireAPIKey,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	coord := directory.NewCoordinator(directory.Settings{
		UsersFilePath:   cfg.Directory.UsersFilePath,
		ProcessedFolder: cfg.Directory.ProcessedFolder,
		MappingFile:     cfg.Directory.MappingFile,
		InactiveValue:   cfg.Directory.InactiveValue,
		CustomSchema:    cfg.Directory.CustomSchemaName,
	}, directory.NewStore())
	service := directory.NewService(coord)

	// The directory must load once before serving; a bad mapping or users
	// file is a startup error.
	res, err := service.Refresh(context.Background())
	if err != nil {
		msg := directory.MapError(err)
		slog.Error("initial refresh failed",
			"error", err,
			"code", msg.Code,
			"action", msg.Action,
		)
		os.Exit(1)
	}
	slog.Info("users loaded", "users", res.Loaded, "source", res.SourceFile)

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartRefreshScheduler(jobCtx, cfg.Directory.RefreshInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
