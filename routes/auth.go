package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"puja-booking-server/middleware"
	"puja-booking-server/models"
	"puja-booking-server/services"
	"puja-booking-server/types"
)

const refreshTokenCookie = "refresh_token"

type authHandler struct {
	auth   *services.AuthService
	cookie cookieSettings
}

type cookieSettings struct {
	domain     string
	secure     bool
	accessTTL  int
	refreshTTL int
}

// registerAuthRoutes registers login, refresh, logout and signup
func registerAuthRoutes(rg *gin.RouterGroup, h *authHandler, requireAuth gin.HandlerFunc, limit gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.Use(limit)
	{
		auth.POST("/admin/login", h.login(types.RoleAdmin))
		auth.POST("/agent/login", h.login(types.RoleAgent))
		auth.POST("/client/login", h.login(types.RoleClient))
		auth.POST("/client/register", h.registerClient)
		auth.POST("/refresh", h.refresh)
		auth.POST("/logout", h.logout)
	}
	rg.GET("/auth/me", requireAuth, h.me)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *authHandler) login(role types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		account, err := h.auth.Authenticate(c.Request.Context(), role, req.Email, req.Password)
		if err != nil {
			requestLog(c).Warn().Str("role", string(role)).Msg("failed login attempt")
			respondError(c, err)
			return
		}

		h.issue(c, http.StatusOK, "Signed in successfully", account)
	}
}

func (h *authHandler) registerClient(c *gin.Context) {
	var req services.RegisterClientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	client, err := h.auth.RegisterClient(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issue(c, http.StatusCreated, "Account created successfully", client)
}

func (h *authHandler) issue(c *gin.Context, status int, message string, account models.Account) {
	tokens, err := h.auth.IssueTokens(c.Request.Context(), account, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	h.setCookies(c, tokens)
	respondData(c, status, message, gin.H{
		"account": account,
		"role":    account.AccountRole(),
		"tokens":  tokens,
	})
}

func (h *authHandler) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshTokenCookie)
	}
	if req.RefreshToken == "" {
		respondError(c, types.ErrAuthRequired)
		return
	}

	tokens, account, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.clearCookies(c)
		respondError(c, err)
		return
	}
	h.setCookies(c, tokens)
	respondData(c, http.StatusOK, "", gin.H{
		"account": account,
		"role":    account.AccountRole(),
		"tokens":  tokens,
	})
}

func (h *authHandler) logout(c *gin.Context) {
	token, _ := c.Cookie(refreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if err := h.auth.Revoke(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	h.clearCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signed out"})
}

func (h *authHandler) me(c *gin.Context) {
	account := middleware.AccountOf(c)
	respondData(c, http.StatusOK, "", gin.H{
		"account": account,
		"role":    middleware.RoleOf(c),
	})
}

func (h *authHandler) setCookies(c *gin.Context, tokens *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, h.cookie.accessTTL, "/", h.cookie.domain, h.cookie.secure, true)
	c.SetCookie(refreshTokenCookie, tokens.RefreshToken, h.cookie.refreshTTL, "/api/v1/auth", h.cookie.domain, h.cookie.secure, true)
}

func (h *authHandler) clearCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookie.domain, h.cookie.secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/api/v1/auth", h.cookie.domain, h.cookie.secure, true)
}
