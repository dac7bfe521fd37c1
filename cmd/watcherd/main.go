package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	screenwatchroot "github.com/set-night/screenwatch"
	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/handler"
	"github.com/set-night/screenwatch/internal/logging"
	"github.com/set-night/screenwatch/internal/middleware"
	"github.com/set-night/screenwatch/internal/repository"
	"github.com/set-night/screenwatch/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(screenwatchroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize stores
	settingsStore := repository.NewSettingsStore(pool)
	sessionStore := repository.NewSessionStore(pool)
	responseStore := repository.NewResponseStore(pool)
	logStore := repository.NewDebugLogStore(pool)

	// Setup structured logging, teed into the debug log store
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(logging.NewStoreHandler(jsonHandler, logStore))
	slog.SetDefault(logger)

	// Initialize services
	openRouter := service.NewOpenRouterClient(cfg.OpenRouterKey)
	broadcaster := service.NewBroadcaster()

	notifier, err := service.NewNotifier(cfg)
	if err != nil {
		slog.Error("failed to create notifier", "error", err)
		os.Exit(1)
	}

	crops := service.NewCropChain(
		service.NewNativeCropper(),
		service.NewHelperCropper(cfg.CropHelper),
	)

	monitor := service.NewMonitor(ctx, service.MonitorDeps{
		Source:    service.NewDisplaySource(),
		Crops:     crops,
		Client:    openRouter,
		Sessions:  sessionStore,
		Responses: responseStore,
		Settings:  settingsStore,
		Events:    broadcaster,
		Notifier:  notifier,
		APIKey:    cfg.OpenRouterKey,
	})
	defer monitor.Close()

	// Initialize handler
	h := handler.New(handler.Deps{
		Monitor:   monitor,
		Client:    openRouter,
		Settings:  settingsStore,
		Sessions:  sessionStore,
		Responses: responseStore,
		Logs:      logStore,
		Events:    broadcaster,
	})

	app := fiber.New(fiber.Config{
		AppName:               "screenwatch",
		DisableStartupMessage: true,
	})
	app.Use(middleware.Recover())
	app.Use(middleware.Logging())
	h.Register(app)

	go func() {
		slog.Info("daemon listening", "addr", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
