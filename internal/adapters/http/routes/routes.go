package routes

import (
	"fmt"
	"log/slog"

	"hxstudio-auth/internal/adapters/http/handlers"
	"hxstudio-auth/internal/adapters/http/middleware"
	"hxstudio-auth/internal/adapters/persistence/repositories"
	"hxstudio-auth/internal/config"
	"hxstudio-auth/internal/core/services"
	"hxstudio-auth/internal/pkg/jwt"
	"hxstudio-auth/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, cron *services.CronService, log *slog.Logger) error {
	// Initialize repositories
	store := repositories.NewCredentialStore(db)

	// Initialize services
	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}
	tokens, err := jwt.NewAuthority([]byte(cfg.JWT.Secret),
		jwt.WithIssuer(cfg.JWT.Issuer),
		jwt.WithAudience(cfg.JWT.Audience),
		jwt.WithTTL(cfg.JWT.TTL),
		jwt.WithLeeway(cfg.JWT.Leeway),
	)
	if err != nil {
		return fmt.Errorf("failed to create token authority: %w", err)
	}
	authService := services.NewAuthService(store, hasher, tokens, cfg, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, cron)
	authHandler := handlers.NewAuthHandler(authService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	setupAuthRoutes(app.Group("/api/auth"), authHandler, authService, cfg)
	return nil
}

// setupAuthRoutes configures /api/auth routes
func setupAuthRoutes(
	router fiber.Router,
	authHandler *handlers.AuthHandler,
	authService *services.AuthService,
	cfg *config.Config,
) {
	router.Use(middleware.NoCacheHeaders())

	// Stricter limit for credential endpoints
	limited := func(h fiber.Handler) []fiber.Handler {
		return []fiber.Handler{h}
	}
	if cfg.HTTP.AuthRateLimitPerMinute > 0 {
		authLimiter := middleware.AuthRateLimiter(cfg.HTTP.AuthRateLimitPerMinute)
		limited = func(h fiber.Handler) []fiber.Handler {
			return []fiber.Handler{authLimiter, h}
		}
	}

	router.Post("/register", limited(authHandler.Register)...)
	router.Post("/login", limited(authHandler.Login)...)
	router.Post("/changePassword", limited(authHandler.ChangePassword)...)

	if cfg.Auth.AssignRoleAdminOnly {
		router.Post("/assignRole",
			middleware.AuthMiddleware(authService),
			middleware.AdminOnly(),
			authHandler.AssignRole,
		)
	} else {
		router.Post("/assignRole", authHandler.AssignRole)
	}

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(authService), authHandler.Me)
}
