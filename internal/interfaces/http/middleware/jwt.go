package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/infrastructure/auth"
	"github.com/traitedesk/backend/internal/infrastructure/logger"
	"github.com/traitedesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Auth context keys and headers
const (
	JWTClaimsKey  = "jwt_claims"
	UserIDKey     = "user_id"
	UserIDHeader  = "X-User-ID"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// AuthConfig holds configuration for the authentication middleware
type AuthConfig struct {
	// JWTService validates bearer tokens. Nil disables token checks.
	JWTService *auth.JWTService
	// Required rejects requests that carry no identity at all
	Required bool
	// AllowUserHeader accepts X-User-ID when no bearer token is sent
	AllowUserHeader bool
	// SkipPaths never require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultAuthConfig returns the development setup: tokens are validated when
// present and X-User-ID is accepted otherwise.
func DefaultAuthConfig(jwtService *auth.JWTService) AuthConfig {
	return AuthConfig{
		JWTService:      jwtService,
		AllowUserHeader: true,
		SkipPaths:       []string{"/health", "/metrics", "/api/v1/health"},
	}
}

// Auth resolves the acting user. A bearer token, when sent, must be valid.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		userID := ""
		header := c.GetHeader(AuthHeaderKey)
		switch {
		case header != "" && cfg.JWTService != nil:
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" {
				abortUnauthorized(c, log, auth.ErrInvalidToken)
				return
			}
			claims, err := cfg.JWTService.ValidateAccessToken(token)
			if err != nil {
				abortUnauthorized(c, log, err)
				return
			}
			c.Set(JWTClaimsKey, claims)
			userID = claims.Actor()
		case cfg.AllowUserHeader:
			userID = strings.TrimSpace(c.GetHeader(UserIDHeader))
		}

		if userID == "" && cfg.Required {
			abortUnauthorized(c, log, errors.New("missing credentials"))
			return
		}
		if userID != "" {
			c.Set(UserIDKey, userID)
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("Authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingUserID):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetUserID returns the acting user resolved by Auth, empty when anonymous
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetJWTClaims returns the validated claims, nil when no token was sent
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
