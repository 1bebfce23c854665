package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/traitedesk/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hs256"

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Enabled: true, Secret: testSecret, Issuer: "traites-test"})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateToken("u-17", "adjoa", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-17", claims.Actor())
	assert.Equal(t, "adjoa", claims.Username)
	assert.Equal(t, "traites-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ValidateAccessToken_Errors(t *testing.T) {
	svc := newTestService()

	sign := func(claims *Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    "traites-test",
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong secret",
			token:   sign(&Claims{RegisteredClaims: valid()}, "another-secret"),
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func() string {
				rc := valid()
				rc.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return sign(&Claims{RegisteredClaims: rc}, testSecret)
			}(),
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func() string {
				rc := valid()
				rc.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
				return sign(&Claims{RegisteredClaims: rc}, testSecret)
			}(),
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "wrong issuer",
			token: func() string {
				rc := valid()
				rc.Issuer = "someone-else"
				return sign(&Claims{RegisteredClaims: rc}, testSecret)
			}(),
			wantErr: ErrInvalidToken,
		},
		{
			name: "no user",
			token: func() string {
				rc := valid()
				rc.Subject = ""
				return sign(&Claims{RegisteredClaims: rc}, testSecret)
			}(),
			wantErr: ErrMissingUserID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaims_Actor(t *testing.T) {
	assert.Equal(t, "u-2", (&Claims{UserID: "u-2", RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}}).Actor())
	assert.Equal(t, "u-1", (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}}).Actor())
}
