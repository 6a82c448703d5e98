package handlers

import (
	"errors"

	"peerpay/internal/middleware"
	"peerpay/internal/services/dashboard"
	"peerpay/internal/services/trader"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler serves the role-dependent dashboard counters.
type StatsHandler struct {
	dashboardService dashboard.Service
	traderService    trader.Service
}

func NewStatsHandler(dashboardService dashboard.Service, traderService trader.Service) *StatsHandler {
	return &StatsHandler{
		dashboardService: dashboardService,
		traderService:    traderService,
	}
}

func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	switch {
	case claims.Role.IsAdmin():
		stats, err := h.dashboardService.ForAdmin(c.Context())
		if err != nil {
			return utils.InternalError(c, "failed to load stats")
		}
		return utils.Success(c, stats)

	case claims.Role.CanTrade():
		profile, err := h.traderService.Profile(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, trader.ErrProfileNotFound) {
				return utils.NotFound(c, err.Error())
			}
			return utils.InternalError(c, "failed to load stats")
		}
		stats, err := h.dashboardService.ForTrader(c.Context(), profile)
		if err != nil {
			return utils.InternalError(c, "failed to load stats")
		}
		return utils.Success(c, stats)

	default:
		stats, err := h.dashboardService.ForUser(c.Context(), claims.UserID)
		if err != nil {
			return utils.InternalError(c, "failed to load stats")
		}
		return utils.Success(c, stats)
	}
}
