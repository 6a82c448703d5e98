package handlers

import (
	"peerpay/internal/repositories/cache"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	cache *cache.Service
}

func NewHealthHandler(cacheService *cache.Service) *HealthHandler {
	return &HealthHandler{cache: cacheService}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}
	if h.cache != nil {
		if err := h.cache.HealthCheck(c.Context()); err != nil {
			status["cache"] = "unavailable"
		}
	}
	return utils.Success(c, status)
}
