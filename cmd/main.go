package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"project_waBot/internal/commands"
	"project_waBot/internal/config"
	"project_waBot/internal/entities"
	"project_waBot/internal/infrastructure"
	adminhttp "project_waBot/internal/interfaces/http"
	"project_waBot/internal/plugins"
	"project_waBot/internal/repository"
	"project_waBot/internal/usecases"
)

func main() {
	// A .env file is optional; real deployments may set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewStore(repository.Options{
		Path:          cfg.DBPath,
		BackupDir:     cfg.BackupDir,
		MaxLimit:      cfg.MaxLimit,
		ResetInterval: cfg.ResetInterval,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	store.StartResetLoop(ctx)

	registry := plugins.NewRegistry(cfg.PluginDir, commands.Catalog(), logger)
	if err := registry.Load(); err != nil {
		logger.Error("initial plugin load failed", "error", err)
	}
	if err := registry.Watch(ctx); err != nil {
		logger.Warn("plugin watcher unavailable, hot reload disabled", "error", err)
	}

	wa, err := infrastructure.NewWhatsAppClient(cfg.SessionDB, cfg.QRPath, logger)
	if err != nil {
		logger.Error("failed to initialize WhatsApp client", "error", err)
		os.Exit(1)
	}
	wa.OnConnected = func() {
		if _, err := store.Backup(); err != nil {
			logger.Error("startup backup failed", "error", err)
		}
	}

	dispatcher := usecases.NewDispatcher(store, registry, wa, cfg, logger)

	if cfg.AdminPassword != "" && cfg.JWTSecret != "" {
		handler, err := adminhttp.NewHandler(store, registry, cfg.AdminPassword, cfg.JWTSecret)
		if err != nil {
			logger.Error("failed to initialize admin API", "error", err)
			os.Exit(1)
		}
		r := gin.Default()
		adminhttp.SetupRoutes(r, handler, adminhttp.NewMiddleware(cfg.JWTSecret))
		go func() {
			if err := r.Run(cfg.AdminAddr); err != nil {
				logger.Error("admin API failed to start", "error", err)
				os.Exit(1)
			}
		}()
	} else {
		logger.Info("admin API disabled (ADMIN_PASSWORD or JWT_SECRET missing)")
	}

	if err := wa.Connect(ctx); err != nil {
		logger.Error("failed to connect to WhatsApp", "error", err)
		os.Exit(1)
	}
	defer wa.Disconnect()

	messages := make(chan entities.Message, 64)
	go dispatcher.Run(ctx, messages)

	logger.Info("bot running", "prefix", cfg.Prefix, "plugins", cfg.PluginDir)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case msg := <-wa.Messages:
			if notice, blocked := usecases.MaintenanceGate(store, cfg, msg); blocked {
				if err := wa.Reply(ctx, msg, notice); err != nil {
					logger.Error("maintenance notice failed", "error", err)
				}
				continue
			}
			messages <- msg
		}
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
