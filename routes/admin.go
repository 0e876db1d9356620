package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"puja-booking-server/database"
	"puja-booking-server/middleware"
	"puja-booking-server/models"
	"puja-booking-server/services"
	ws "puja-booking-server/websocket"
)

// adminHandler serves the outbox console and the live booking feed
type adminHandler struct {
	outbox   *database.OutboxStore
	hub      *ws.Hub
	upgrader *gorillaws.Upgrader
}

func registerAdminRoutes(admin *gin.RouterGroup, h *adminHandler) {
	admin.GET("/admin/outbox", h.listOutbox)
	admin.POST("/admin/outbox/:id/retry", h.retryOutbox)
	admin.GET("/admin/ws", h.feed)
}

func (h *adminHandler) listOutbox(c *gin.Context) {
	page, limit := pagination(c)
	events, total, err := h.outbox.List(c.Request.Context(), models.OutboxStatus(c.Query("status")), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, events, page, limit, total)
}

// retryOutbox puts a failed delivery back in the queue
func (h *adminHandler) retryOutbox(c *gin.Context) {
	event, err := h.outbox.Retry(c.Request.Context(), c.Param("id"), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	requestLog(c).Info().Str("event_id", event.ID).Str("kind", string(event.Kind)).Msg("outbox event requeued")
	respondData(c, http.StatusOK, "Event queued for retry", event)
}

func (h *adminHandler) feed(c *gin.Context) {
	ws.ServeWebSocket(h.hub, h.upgrader, c.Writer, c.Request, middleware.SubjectID(c))
}

func countdownHandler(countdown *services.Countdown) gin.HandlerFunc {
	return func(c *gin.Context) {
		respondData(c, http.StatusOK, "", countdown.Status())
	}
}
