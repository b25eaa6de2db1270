package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	service := NewJWTService("test-secret")
	userID := uuid.New().String()

	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	extractedID, err := service.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, extractedID)
}

func TestJWTInvalidToken(t *testing.T) {
	service := NewJWTService("test-secret")

	_, err := service.ExtractUserID("not-a-token")
	assert.Error(t, err)
}

func TestJWTWrongSecret(t *testing.T) {
	service := NewJWTService("test-secret")
	other := NewJWTService("another-secret")

	token, err := service.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	_, err = other.ExtractUserID(token)
	assert.Error(t, err)
}
