package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "turfops/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "turfops-test")
	userID := uuid.New()

	tokenString, err := svc.GenerateToken(userID, "worker", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "worker", claims.Role)
	assert.Equal(t, "turfops-test", claims.Issuer)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-signing-key", "turfops-test")

	tokenString, err := svc.GenerateToken(uuid.New(), "worker", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "turfops-test")
	verifier := NewJWTService("key-two", "turfops-test")

	tokenString, err := issuer.GenerateToken(uuid.New(), "worker", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "turfops-test")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
