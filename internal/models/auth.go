package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload minted by the identity service. UserID is recorded as
// updatedBy on every write.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}
