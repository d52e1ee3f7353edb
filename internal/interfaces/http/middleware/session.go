package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/safework/backend/internal/domain/identity"
	"github.com/safework/backend/internal/infrastructure/auth"
	"github.com/safework/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionClaimsKey    = "session_claims"
	SessionAccountIDKey = "session_account_id"
	SessionUsernameKey  = "session_username"
	SessionRoleKey      = "session_role"
	AuthHeaderKey       = "Authorization"
	BearerPrefix        = "Bearer "
)

// SessionMiddlewareConfig holds configuration for session authentication
type SessionMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist rejects tokens revoked by logout
	TokenBlacklist auth.TokenBlacklist
	// CookieName is the session cookie carrying the token
	CookieName string
	// Logger for middleware logging
	Logger *zap.Logger
}

// SessionAuth creates session authentication middleware. The token is
// read from the session cookie first, with an Authorization bearer
// header as fallback for non-browser clients.
func SessionAuth(cfg SessionMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c, cfg.CookieName)
		if tokenString == "" {
			abortUnauthorized(c, cfg.Logger, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			message := "Invalid session token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
				message = "Session has expired"
			}
			abortUnauthorized(c, cfg.Logger, code, message)
			return
		}

		if cfg.TokenBlacklist != nil && claims.ID != "" {
			revoked, err := cfg.TokenBlacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail open for availability, but leave a trace
				if cfg.Logger != nil {
					cfg.Logger.Error("Failed to check token revocation",
						zap.String("jti", claims.ID),
						zap.Error(err))
				}
			} else if revoked {
				abortUnauthorized(c, cfg.Logger, dto.ErrCodeTokenInvalid, "Session has been ended")
				return
			}
		}

		c.Set(SessionClaimsKey, claims)
		c.Set(SessionAccountIDKey, claims.AccountID)
		c.Set(SessionUsernameKey, claims.Username)
		c.Set(SessionRoleKey, claims.Role)

		c.Next()
	}
}

// RequireAdministrator rejects requests from non-administrator sessions.
// Must run after SessionAuth.
func RequireAdministrator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSessionRole(c).IsAdministrator() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Administrator access required"))
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token
		}
	}
	authHeader := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, logger *zap.Logger, code, message string) {
	if logger != nil {
		logger.Warn("Session authentication failed",
			zap.String("code", code),
			zap.String("path", c.Request.URL.Path))
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message))
}

// GetSessionClaims retrieves session claims from gin.Context
func GetSessionClaims(c *gin.Context) *auth.Claims {
	if value, exists := c.Get(SessionClaimsKey); exists {
		if claims, ok := value.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetSessionAccountID retrieves the authenticated account ID, or
// uuid.Nil when the request is unauthenticated
func GetSessionAccountID(c *gin.Context) uuid.UUID {
	if value, exists := c.Get(SessionAccountIDKey); exists {
		if idStr, ok := value.(string); ok {
			if id, err := uuid.Parse(idStr); err == nil {
				return id
			}
		}
	}
	return uuid.Nil
}

// GetSessionUsername retrieves the authenticated username
func GetSessionUsername(c *gin.Context) string {
	return c.GetString(SessionUsernameKey)
}

// GetSessionRole retrieves the authenticated account's role
func GetSessionRole(c *gin.Context) identity.Role {
	return identity.Role(c.GetString(SessionRoleKey))
}
