// Package middleware provides the authentication and role-guard layers.
// The core services receive the principal extracted here and do no
// credential checking of their own.
package middleware

import (
	"strings"

	"peerpay/internal/models"
	"peerpay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const claimsLocal = "claims"

// Auth validates the Bearer token and stores its claims in the request
// context for handlers to read via Claims.
func Auth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals(claimsLocal, claims)
	return c.Next()
}

// Claims returns the authenticated principal stored by Auth.
func Claims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(claimsLocal).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// RequireTrader admits roles that can perform trader operations.
func RequireTrader(c *fiber.Ctx) error {
	claims, err := Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if !claims.Role.CanTrade() {
		return utils.Forbidden(c, "trader access required")
	}
	return c.Next()
}

// RequireAdmin admits the admin role only.
func RequireAdmin(c *fiber.Ctx) error {
	claims, err := Claims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if !claims.Role.IsAdmin() {
		return utils.Forbidden(c, "admin access required")
	}
	return c.Next()
}
