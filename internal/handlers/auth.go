// Package handlers contains the Fiber HTTP handlers. Handlers parse and
// validate request bodies, call the services and map domain errors to
// HTTP statuses; business rules live in the services.
package handlers

import (
	"errors"

	"peerpay/internal/middleware"
	"peerpay/internal/models"
	"peerpay/internal/services/auth"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Email == "" || input.Password == "" {
		return utils.BadRequest(c, "email and password are required")
	}

	user, token, err := h.authService.Register(c.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.InternalError(c, "registration failed")
		}
	}

	return utils.Success(c, fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	user, token, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return utils.Unauthorized(c, err.Error())
		}
		return utils.InternalError(c, "login failed")
	}

	return utils.Success(c, fiber.Map{
		"token": token,
		"user":  publicUser(user),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, err := middleware.Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	identity, err := h.authService.Me(c.Context(), claims.UserID)
	if err != nil {
		return utils.NotFound(c, "user not found")
	}

	return utils.Success(c, fiber.Map{
		"id":     identity.User.ID,
		"email":  identity.User.Email,
		"role":   identity.User.Role,
		"trader": identity.Trader,
	})
}

func publicUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	}
}
