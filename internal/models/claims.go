package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the JWT payload carried by every authenticated request.
// Handlers trust it for identity and role; ownership checks still go
// through tenant-scoped lookups.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
