package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(issuer string) models.JWTClaims {
	return models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleTechnician,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret", "identity")

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("identity")))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTechnician, claims.Role)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret", "identity")

	expired := validClaims("identity")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noSubject := validClaims("identity")
	noSubject.UserID = ""

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims("identity")),
		"wrong issuer": signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("someone-else")),
		"wrong alg":    signToken(t, jwt.SigningMethodHS512, []byte("secret"), validClaims("identity")),
		"expired":      signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"no subject":   signToken(t, jwt.SigningMethodHS256, []byte("secret"), noSubject),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
