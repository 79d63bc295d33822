package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	// An out-of-range cost must hash at the library default, not error.
	hash, err := HashPassword("hunter2", 99)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
}

func TestAccessTokenCarriesClaims(t *testing.T) {
	territory := uint64(7)
	tok, err := NewAccessToken("secret", 42, "MANAGER", &territory, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "MANAGER", claims["role"])
	assert.Equal(t, float64(7), claims["territory_id"])
}

func TestAccessTokenOmitsMissingTerritory(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "BDR", nil, 15)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	_, present := claims["territory_id"]
	assert.False(t, present)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	ref, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, ref.Raw, 96)

	h1 := HashRefreshRaw(ref.Raw)
	h2 := HashRefreshRaw(ref.Raw)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashRefreshRaw(ref.Raw+"x"))
}
