package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/referdby/internal/models"
)

func TestTokenCarriesRole(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken("secret", id, models.RoleManager, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
	require.Equal(t, models.RoleManager, claims.Role)
	require.Equal(t, id.String(), claims.Subject)

	_, err = ParseToken("other", token)
	require.Error(t, err)
}

func TestParseTokenRejectsBadClaims(t *testing.T) {
	expired, err := GenerateToken("secret", uuid.New(), models.RoleServer, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		Role:   models.Role("owner"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken("secret", unknownRole)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: uuid.New(), Role: models.RoleAdmin}).
		SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken("secret", hs512)
	require.Error(t, err)
}
