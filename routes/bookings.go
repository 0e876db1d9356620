package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"puja-booking-server/database"
	"puja-booking-server/middleware"
	"puja-booking-server/models"
	"puja-booking-server/services"
	"puja-booking-server/types"
)

type bookingHandler struct {
	bookings *services.BookingService
}

// registerBookingRoutes wires booking endpoints. authed accepts any role;
// the create and admin handlers are wrapped with their own guards.
func registerBookingRoutes(authed *gin.RouterGroup, h *bookingHandler, clientOnly, adminOnly, launchGate gin.HandlerFunc) {
	bookings := authed.Group("/bookings")
	{
		bookings.POST("", clientOnly, launchGate, h.create)
		bookings.GET("", h.list)
		bookings.GET("/:id", h.get)
		bookings.PATCH("", adminOnly, h.update)
		bookings.POST("/:id/complete", adminOnly, h.complete)
		bookings.POST("/:id/cancel", adminOnly, h.cancel)
	}
}

func (h *bookingHandler) create(c *gin.Context) {
	var req services.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), middleware.SubjectID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Booking created successfully", booking)
}

func (h *bookingHandler) list(c *gin.Context) {
	page, limit := pagination(c)
	filter := database.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	}
	bookings, total, err := h.bookings.List(c.Request.Context(), middleware.RoleOf(c), middleware.SubjectID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, bookings, page, limit, total)
}

func (h *bookingHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), id, middleware.RoleOf(c), middleware.SubjectID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", booking)
}

type updateBookingRequest struct {
	BookingID uint `json:"bookingId"`
	services.BookingPatch
}

// update applies a payment/agent patch. The response keeps the
// {message, booking} shape dashboards already consume.
func (h *bookingHandler) update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.BookingID == 0 {
		respondError(c, types.ErrMissingBookingID)
		return
	}

	booking, err := h.bookings.Update(c.Request.Context(), req.BookingID, req.BookingPatch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking updated successfully",
		"booking": booking,
	})
}

func (h *bookingHandler) complete(c *gin.Context) {
	h.transition(c, h.bookings.Complete, "Booking completed")
}

func (h *bookingHandler) cancel(c *gin.Context) {
	h.transition(c, h.bookings.Cancel, "Booking cancelled")
}

func (h *bookingHandler) transition(c *gin.Context, apply func(context.Context, uint) (*models.Booking, error), message string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := apply(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"booking": booking,
	})
}
