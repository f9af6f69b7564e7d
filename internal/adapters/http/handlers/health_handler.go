package handlers

import (
	"hxstudio-auth/internal/config"
	"hxstudio-auth/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg  *config.Config
	cron *services.CronService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, cron *services.CronService) *HealthHandler {
	return &HealthHandler{cfg: cfg, cron: cron}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "HxStudio Auth API is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck reports the last database probe
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	db := h.cron.Status()

	dbStatus := "healthy"
	status := fiber.StatusOK
	if !db.Healthy {
		dbStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
		"checkedAt": db.CheckedAt,
	})
}
