package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"puja-booking-server/models"
	"puja-booking-server/types"
	"puja-booking-server/utils"
)

// Context keys set by RequireAuth
const (
	KeySubjectID = "subject_id"
	KeyRole      = "role"
	KeyAccount   = "account"
)

// AccessTokenCookie carries the access token between browser and API
const AccessTokenCookie = "access_token"

// AccountLoader resolves the account a token subject refers to
type AccountLoader interface {
	LoadAccount(ctx context.Context, role types.Role, id uint) (models.Account, error)
}

// RequireAuth validates the access token and, when roles are given, checks
// that the caller holds one of them
func RequireAuth(secret string, loader AccountLoader, roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			abortWithError(c, types.ErrAuthRequired)
			return
		}

		claims, err := utils.VerifyToken(secret, tokenString)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected access token")
			abortWithError(c, types.ErrInvalidToken)
			return
		}

		account, err := loader.LoadAccount(c.Request.Context(), claims.Role, claims.SubjectID)
		if err != nil {
			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				log.Error().Err(err).Msg("failed to load account for token")
			}
			abortWithError(c, types.ErrInvalidToken)
			return
		}

		if !account.Active() {
			abortWithError(c, types.ErrAccountInactive)
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			abortWithError(c, types.ErrForbidden)
			return
		}

		c.Set(KeySubjectID, account.AccountID())
		c.Set(KeyRole, account.AccountRole())
		c.Set(KeyAccount, account)
		c.Next()
	}
}

// tokenFromRequest prefers the cookie and falls back to a Bearer header
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}
	return strings.TrimSpace(tokenString)
}

func hasRole(role types.Role, allowed []types.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// SubjectID returns the authenticated account id
func SubjectID(c *gin.Context) uint {
	return c.GetUint(KeySubjectID)
}

// RoleOf returns the authenticated role, empty when unauthenticated
func RoleOf(c *gin.Context) types.Role {
	if v, ok := c.Get(KeyRole); ok {
		if role, ok := v.(types.Role); ok {
			return role
		}
	}
	return ""
}

// AccountOf returns the account loaded by RequireAuth
func AccountOf(c *gin.Context) models.Account {
	if v, ok := c.Get(KeyAccount); ok {
		if account, ok := v.(models.Account); ok {
			return account
		}
	}
	return nil
}

func abortWithError(c *gin.Context, err *types.AppError) {
	c.AbortWithStatusJSON(err.Status(), gin.H{
		"success": false,
		"error":   err.Message,
		"code":    err.Code,
	})
}

// OptionalAuth sets the caller's identity when a valid token is present and
// never rejects the request
func OptionalAuth(secret string, loader AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.Next()
			return
		}
		claims, err := utils.VerifyToken(secret, tokenString)
		if err != nil {
			c.Next()
			return
		}
		account, err := loader.LoadAccount(c.Request.Context(), claims.Role, claims.SubjectID)
		if err == nil && account.Active() {
			c.Set(KeySubjectID, account.AccountID())
			c.Set(KeyRole, account.AccountRole())
			c.Set(KeyAccount, account)
		}
		c.Next()
	}
}
