package handlers

import (
	"errors"

	"peerpay/internal/middleware"
	"peerpay/internal/services/allocator"
	"peerpay/internal/services/exchange"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves the user side of an exchange: requesting a card and
// confirming the fiat payment.
type UserHandler struct {
	exchangeService exchange.Service
}

func NewUserHandler(exchangeService exchange.Service) *UserHandler {
	return &UserHandler{exchangeService: exchangeService}
}

func (h *UserHandler) RequestCard(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.exchangeService.RequestCard(c.Context(), claims.UserID, input.Amount, input.Currency)
	if err != nil {
		switch {
		case errors.Is(err, allocator.ErrInvalidAmount):
			return utils.BadRequest(c, "amount must be positive")
		case errors.Is(err, allocator.ErrNoActiveCards):
			return utils.NotFound(c, "no available cards")
		case errors.Is(err, allocator.ErrNoCardCapacity):
			return utils.BadRequest(c, "no card with sufficient limit")
		default:
			return utils.InternalError(c, "card request failed")
		}
	}

	return utils.Success(c, result)
}

func (h *UserHandler) ConfirmPayment(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	err = h.exchangeService.ConfirmPayment(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrTransactionNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, exchange.ErrAlreadyProcessed):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "confirmation failed")
		}
	}

	return utils.Success(c, fiber.Map{"message": "payment confirmation sent to trader"})
}

func (h *UserHandler) Transactions(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	txns, err := h.exchangeService.ListForUser(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to list transactions")
	}
	return utils.Success(c, txns)
}
