package handlers

import (
	"errors"

	"peerpay/internal/middleware"
	"peerpay/internal/models"
	"peerpay/internal/services/exchange"
	"peerpay/internal/services/settlement"
	"peerpay/internal/services/trader"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// TraderHandler serves trader onboarding, card management and the trader
// side of transaction confirmation.
type TraderHandler struct {
	traderService   trader.Service
	exchangeService exchange.Service
}

func NewTraderHandler(traderService trader.Service, exchangeService exchange.Service) *TraderHandler {
	return &TraderHandler{
		traderService:   traderService,
		exchangeService: exchangeService,
	}
}

func (h *TraderHandler) Register(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input trader.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	profile, err := h.traderService.Become(c.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, trader.ErrAlreadyTrader), errors.Is(err, trader.ErrProfileExists):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "trader registration failed")
		}
	}
	return utils.Success(c, profile)
}

func (h *TraderHandler) Profile(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	profile, err := h.traderService.Profile(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, trader.ErrProfileNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to load profile")
	}
	return utils.Success(c, profile)
}

func (h *TraderHandler) AddCard(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input trader.CardInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	card, err := h.traderService.AddCard(c.Context(), claims.UserID, input)
	if err != nil {
		switch {
		case errors.Is(err, trader.ErrProfileNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, trader.ErrInvalidCard), errors.Is(err, trader.ErrInvalidLimit):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "failed to add card")
		}
	}
	return utils.Success(c, card)
}

func (h *TraderHandler) ListCards(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	cards, err := h.traderService.ListCards(c.Context(), claims.UserID)
	if err != nil {
		return utils.InternalError(c, "failed to list cards")
	}
	return utils.Success(c, cards)
}

func (h *TraderHandler) UpdateCard(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var patch models.CardUpdate
	if err := c.BodyParser(&patch); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	card, err := h.traderService.UpdateCard(c.Context(), claims.UserID, c.Params("id"), patch)
	if err != nil {
		switch {
		case errors.Is(err, trader.ErrProfileNotFound), errors.Is(err, trader.ErrCardNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, trader.ErrInvalidLimit), errors.Is(err, trader.ErrInvalidStatus):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "failed to update card")
		}
	}
	return utils.Success(c, card)
}

func (h *TraderHandler) DeleteCard(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	err = h.traderService.DeleteCard(c.Context(), claims.UserID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, trader.ErrProfileNotFound), errors.Is(err, trader.ErrCardNotFound):
			return utils.NotFound(c, err.Error())
		default:
			return utils.InternalError(c, "failed to delete card")
		}
	}
	return utils.Success(c, fiber.Map{"message": "card deleted successfully"})
}

func (h *TraderHandler) Transactions(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	profile, err := h.traderService.Profile(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, trader.ErrProfileNotFound) {
			return utils.Success(c, []models.Transaction{})
		}
		return utils.InternalError(c, "failed to load profile")
	}

	txns, err := h.exchangeService.ListForTrader(c.Context(), profile.ID)
	if err != nil {
		return utils.InternalError(c, "failed to list transactions")
	}
	return utils.Success(c, txns)
}

func (h *TraderHandler) ConfirmPayment(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	profile, err := h.traderService.Profile(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, trader.ErrProfileNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to load profile")
	}

	result, err := h.exchangeService.ConfirmReceipt(c.Context(), profile.ID, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrTransactionNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, exchange.ErrAwaitingUserConfirm),
			errors.Is(err, exchange.ErrAlreadyProcessed),
			errors.Is(err, settlement.ErrInsufficientBalance):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "confirmation failed")
		}
	}

	return utils.Success(c, fiber.Map{
		"message":    "payment confirmed and USDT sent",
		"usdt_sent":  result.UsdtSent,
		"commission": result.Commission,
	})
}
