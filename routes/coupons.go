package routes

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"puja-booking-server/services"
)

type couponHandler struct {
	coupons *services.CouponService
}

func registerCouponRoutes(public, admin *gin.RouterGroup, h *couponHandler) {
	public.POST("/coupons/verify", h.verify)

	admin.GET("/coupons", h.list)
	admin.POST("/coupons", h.create)
	admin.PUT("/coupons/:id", h.update)
	admin.DELETE("/coupons/:id", h.delete)
}

type verifyCouponRequest struct {
	Code       string   `json:"code"`
	OrderTotal *float64 `json:"orderTotal"`
}

// verify prices an order with a coupon without storing anything
func (h *couponHandler) verify(c *gin.Context) {
	var req verifyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// a missing total is rejected by the evaluator as invalid
	total := math.NaN()
	if req.OrderTotal != nil {
		total = *req.OrderTotal
	}

	result, err := h.coupons.Verify(c.Request.Context(), req.Code, total)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func (h *couponHandler) list(c *gin.Context) {
	page, limit := pagination(c)
	coupons, total, err := h.coupons.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, coupons, page, limit, total)
}

func (h *couponHandler) create(c *gin.Context) {
	var req services.CouponInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	requestLog(c).Info().Str("code", coupon.Code).Msg("coupon created")
	respondData(c, http.StatusCreated, "Coupon created successfully", coupon)
}

func (h *couponHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req services.CouponInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	coupon, err := h.coupons.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Coupon updated successfully", coupon)
}

func (h *couponHandler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.coupons.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coupon deleted successfully"})
}
