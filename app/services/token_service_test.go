package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-with-enough-length-for-hs256"

func TestTokenServiceRoundTrip(t *testing.T) {
	svc, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", testSecretKey)
	require.NoError(t, err)

	token, err := svc.GenerateServiceToken("campaign-manager")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateServiceToken(token)
	require.NoError(t, err)
	assert.Equal(t, "campaign-manager", claims.ServiceName)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestTokenServiceExpired(t *testing.T) {
	svc, err := NewTokenService(-time.Minute, "susanoo-delivery", "susanoo-api", testSecretKey)
	require.NoError(t, err)

	token, err := svc.GenerateServiceToken("campaign-manager")
	require.NoError(t, err)

	_, err = svc.ValidateServiceToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceWrongSecret(t *testing.T) {
	issuer, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", testSecretKey)
	require.NoError(t, err)

	validator, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", "a-completely-different-secret-key-value")
	require.NoError(t, err)

	token, err := issuer.GenerateServiceToken("campaign-manager")
	require.NoError(t, err)

	_, err = validator.ValidateServiceToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenServiceGarbageToken(t *testing.T) {
	svc, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", testSecretKey)
	require.NoError(t, err)

	_, err = svc.ValidateServiceToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", "")
	assert.Error(t, err)
}

func TestTokenIDUnique(t *testing.T) {
	svc, err := NewTokenService(time.Hour, "susanoo-delivery", "susanoo-api", testSecretKey)
	require.NoError(t, err)

	first, err := svc.GenerateServiceToken("campaign-manager")
	require.NoError(t, err)
	second, err := svc.GenerateServiceToken("campaign-manager")
	require.NoError(t, err)

	firstClaims, err := svc.ValidateServiceToken(first)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateServiceToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.TokenID, secondClaims.TokenID)
}
