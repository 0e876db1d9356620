package middleware

import (
	"github.com/gin-gonic/gin"

	"puja-booking-server/types"
)

// Gate reports whether bookings are open
type Gate interface {
	IsLive() bool
}

// LaunchGate blocks the wrapped routes until the countdown ends. Admins
// always pass; it must run after RequireAuth.
func LaunchGate(gate Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleOf(c) == types.RoleAdmin || gate.IsLive() {
			c.Next()
			return
		}
		abortWithError(c, types.ErrNotLive)
	}
}
