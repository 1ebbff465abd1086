package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("secret", "usdtpay")

	token, err := svc.Generate("ops@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyAdmin(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "usdtpay", claims.Issuer)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestJWTService_RejectsWrongSecretAndRole(t *testing.T) {
	svc := NewJWTService("secret", "usdtpay")
	other := NewJWTService("other", "usdtpay")

	token, err := other.Generate("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = svc.Generate(IngestSubject, RoleIngest, 0)
	require.NoError(t, err)
	_, err = svc.VerifyAdmin(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", "usdtpay")

	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_VerifyIngest(t *testing.T) {
	svc := NewJWTService("ingest-secret", "")

	token, err := svc.Generate(IngestSubject, RoleIngest, 0)
	require.NoError(t, err)
	claims, err := svc.VerifyIngest(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)

	token, err = svc.Generate("watcher", RoleIngest, 0)
	require.NoError(t, err)
	_, err = svc.VerifyIngest(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS384, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: IngestSubject},
	}).SignedString([]byte("ingest-secret"))
	require.NoError(t, err)
	_, err = svc.VerifyIngest(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "only HS256 is accepted")
}
