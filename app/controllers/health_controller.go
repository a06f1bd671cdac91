package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vkazarin/creditgate/internal/pkg/cache"
	"github.com/vkazarin/creditgate/internal/pkg/database"
)

// HandleHealth reports readiness of the datastore dependencies.
func HandleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	dbState := "ok"
	if err := database.Ping(); err != nil {
		dbState = "unavailable"
		status = fiber.StatusServiceUnavailable
	}
	cacheState := "ok"
	if err := cache.Ping(); err != nil {
		cacheState = "unavailable"
		status = fiber.StatusServiceUnavailable
	}
	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": dbState,
		"cache":    cacheState,
	})
}
