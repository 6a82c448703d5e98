package utils

import (
	"testing"

	"peerpay/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{ID: "user-1", Email: "olena@example.com", Role: models.RoleTrader}
	token, err := GenerateToken(user)
	assert.NoError(t, err)

	claims, err := ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "olena@example.com", claims.Email)
	assert.Equal(t, models.RoleTrader, claims.Role)
	assert.Equal(t, "peerpay-api", claims.Issuer)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateToken(&models.User{ID: "user-1"})
	assert.Error(t, err)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateToken(&models.User{ID: "user-1"})
	assert.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}
