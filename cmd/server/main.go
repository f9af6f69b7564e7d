package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hxstudio-auth/internal/adapters/http/middleware"
	"hxstudio-auth/internal/adapters/http/routes"
	"hxstudio-auth/internal/adapters/persistence/models"
	"hxstudio-auth/internal/adapters/persistence/repositories"
	"hxstudio-auth/internal/config"
	"hxstudio-auth/internal/core/services"
	"hxstudio-auth/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	_ "hxstudio-auth/docs" // Swagger docs
)

// @title HxStudio Auth API
// @version 1.0
// @description Password authentication service: registration, login, role assignment and password change.

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.LogError(slog.Default(), "server exited", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until the server stops
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.AppMode)
	slog.SetDefault(log)

	// Connect to database
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer config.CloseDatabase(db)

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	log.Info("database migration completed")

	// Seed roles and the optional first admin
	seeder := config.NewSeeder(repositories.NewCredentialStore(db), cfg, log)
	if err := seeder.Run(context.Background()); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	// Database health probe
	cronService, err := services.NewCronService(func(ctx context.Context) error {
		return config.HealthCheck(ctx, db)
	}, cfg.Health.DBSchedule, log)
	if err != nil {
		return fmt.Errorf("failed to create cron service: %w", err)
	}
	cronService.Start()
	defer cronService.Stop()

	app, err := newApp(db, cfg, cronService, log)
	if err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	// Graceful shutdown
	go gracefulShutdown(app, log)

	// Start server
	log.Info("server starting", "port", cfg.Port, "mode", cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newApp creates the Fiber app with middlewares and routes
func newApp(db *gorm.DB, cfg *config.Config, cron *services.CronService, log *slog.Logger) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:      "HxStudio Auth API v1.0",
		ErrorHandler: middleware.CustomErrorHandler(log),
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	if err := routes.Setup(app, db, cfg, cron, log); err != nil {
		return nil, err
	}
	return app, nil
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("server stopped gracefully")
}
