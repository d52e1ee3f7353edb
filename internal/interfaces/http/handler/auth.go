package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appidentity "github.com/safework/backend/internal/application/identity"
	"github.com/safework/backend/internal/infrastructure/auth"
	"github.com/safework/backend/internal/infrastructure/config"
	"github.com/safework/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *appidentity.AuthService
	jwtService  *auth.JWTService
	cookie      config.CookieConfig
	sessionMW   gin.HandlerFunc
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *appidentity.AuthService,
	jwtService *auth.JWTService,
	cookie config.CookieConfig,
	sessionMW gin.HandlerFunc,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
		cookie:      cookie,
		sessionMW:   sessionMW,
	}
}

// RegisterRoutes registers auth endpoints on the API group
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.sessionMW, h.Me)
}

// Register creates a new employee account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), appidentity.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, accountResponse(result.Account))
}

// Login authenticates an account and starts a cookie session
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), appidentity.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, int(h.jwtService.GetExpiration().Seconds()))
	h.Success(c, accountResponse(result.Account))
}

// Logout ends the session. The token is revoked when present and the
// cookie is cleared either way, so logout never fails for the caller.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil && token != "" {
		if claims, err := h.jwtService.ValidateToken(token); err == nil {
			_ = h.authService.Logout(c.Request.Context(), appidentity.LogoutInput{
				TokenID:   claims.ID,
				ExpiresAt: claims.ExpiresAt.Time,
			})
		}
	}

	h.setSessionCookie(c, "", -1)
	h.Success(c, gin.H{"message": "Logged out"})
}

// Me returns the account behind the current session
func (h *AuthHandler) Me(c *gin.Context) {
	accountID := middleware.GetSessionAccountID(c)
	info, err := h.authService.GetCurrentAccount(c.Request.Context(), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accountResponse(*info))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(sameSiteMode(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func sameSiteMode(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func accountResponse(info appidentity.AccountInfo) AccountResponse {
	return AccountResponse{
		ID:       info.ID,
		Username: info.Username,
		Role:     string(info.Role),
	}
}
