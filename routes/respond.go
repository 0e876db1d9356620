package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"puja-booking-server/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

var errInvalidID = types.Validation("INVALID_ID", "Invalid id")

// respondError writes {success:false, error, code} with the status of the
// AppError kind; anything else is logged and hidden behind a 500
func respondError(c *gin.Context, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status(), gin.H{
			"success": false,
			"error":   appErr.Message,
			"code":    appErr.Code,
		})
		return
	}

	_ = c.Error(err)
	requestLog(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Internal server error",
		"code":    "INTERNAL_ERROR",
	})
}

// badRequest reports a body that failed to bind
func badRequest(c *gin.Context, err error) {
	respondError(c, types.Validation("INVALID_REQUEST", "Invalid request format: "+err.Error()))
}

func respondData(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

func respondList(c *gin.Context, data interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// pagination reads page/limit query params, defaulting to 1/50 with a cap of 100
func pagination(c *gin.Context) (page, limit int) {
	page, limit = 1, defaultPageSize
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

func requestLog(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
