package handlers

import (
	"errors"

	"peerpay/internal/services/admin"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService admin.Service
}

func NewAdminHandler(adminService admin.Service) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Traders(c *fiber.Ctx) error {
	traders, err := h.adminService.ListTraders(c.Context())
	if err != nil {
		return utils.InternalError(c, "failed to list traders")
	}
	return utils.Success(c, traders)
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.adminService.ListUsers(c.Context())
	if err != nil {
		return utils.InternalError(c, "failed to list users")
	}
	return utils.Success(c, users)
}

func (h *AdminHandler) AddBalance(c *fiber.Ctx) error {
	var input struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	balance, err := h.adminService.AddBalance(c.Context(), c.Params("id"), input.Amount)
	if err != nil {
		if errors.Is(err, admin.ErrTraderNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to add balance")
	}

	return utils.Success(c, fiber.Map{
		"message":     "balance added",
		"new_balance": balance,
	})
}

func (h *AdminHandler) ToggleBlock(c *fiber.Ctx) error {
	blocked, err := h.adminService.ToggleBlock(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, admin.ErrTraderNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to update trader")
	}

	return utils.Success(c, fiber.Map{
		"message":    "trader status updated",
		"is_blocked": blocked,
	})
}

func (h *AdminHandler) Transactions(c *fiber.Ctx) error {
	txns, err := h.adminService.ListTransactions(c.Context())
	if err != nil {
		return utils.InternalError(c, "failed to list transactions")
	}
	return utils.Success(c, txns)
}

func (h *AdminHandler) Settings(c *fiber.Ctx) error {
	settings, err := h.adminService.Settings(c.Context())
	if err != nil {
		return utils.InternalError(c, "failed to load settings")
	}
	return utils.Success(c, settings)
}

func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var input struct {
		CommissionRate float64 `json:"commission_rate"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	settings, err := h.adminService.UpdateSettings(c.Context(), input.CommissionRate)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidRate) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "failed to update settings")
	}

	return utils.Success(c, fiber.Map{
		"message":  "settings updated",
		"settings": settings,
	})
}
