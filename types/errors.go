package types

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError for transport mapping
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindBusinessRule
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUpstream
	KindUnavailable
)

// HTTPStatus maps the kind to a response status code
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a per-request recoverable failure returned to API callers.
// Two AppErrors match under errors.Is when their codes are equal, so
// sentinels below can be compared against errors carrying a custom message.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Status returns the HTTP status for the error
func (e *AppError) Status() int {
	return e.Kind.HTTPStatus()
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Validation builds a KindValidation error
func Validation(code, message string) *AppError {
	return newError(KindValidation, code, message)
}

// NotFound builds a KindNotFound error
func NotFound(code, message string) *AppError {
	return newError(KindNotFound, code, message)
}

// Conflict builds a KindConflict error
func Conflict(code, message string) *AppError {
	return newError(KindConflict, code, message)
}

var (
	ErrInvalidOrderTotal       = Validation("INVALID_ORDER_TOTAL", "Order total must be a non-negative number")
	ErrMissingCouponCode       = Validation("MISSING_CODE", "Coupon code is required")
	ErrMissingBookingID        = Validation("MISSING_BOOKING_ID", "bookingId is required")
	ErrInvalidOrInactiveCoupon = newError(KindBusinessRule, "INVALID_OR_INACTIVE_COUPON", "Invalid or inactive coupon")
	ErrMinimumOrderNotMet      = newError(KindBusinessRule, "MINIMUM_ORDER_NOT_MET", "Minimum order value not met")
	ErrExcludedOrderAmount     = newError(KindBusinessRule, "EXCLUDED_ORDER_AMOUNT", "Coupons cannot be applied to this order amount")
	ErrUnsupportedDiscountType = newError(KindBusinessRule, "UNSUPPORTED_DISCOUNT_TYPE", "Unsupported discount type")
	ErrBookingNotFound         = NotFound("BOOKING_NOT_FOUND", "Booking not found")
	ErrAgentNotFound           = NotFound("AGENT_NOT_FOUND", "Agent not found")
	ErrClientNotFound          = NotFound("CLIENT_NOT_FOUND", "Client not found")
	ErrServiceNotFound         = NotFound("SERVICE_NOT_FOUND", "Service not found")
	ErrPujaNotFound            = NotFound("PUJA_NOT_FOUND", "Puja not found")
	ErrCouponNotFound          = NotFound("COUPON_NOT_FOUND", "Coupon not found")
	ErrOutboxEventNotFound     = NotFound("OUTBOX_EVENT_NOT_FOUND", "Outbox event not found")
	ErrInvalidTransition       = Conflict("INVALID_TRANSITION", "Booking cannot move to the requested status")
	ErrInvalidCredentials      = newError(KindUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrAccountInactive         = newError(KindForbidden, "ACCOUNT_INACTIVE", "Account is inactive")
	ErrNotLive                 = newError(KindForbidden, "NOT_LIVE", "Bookings open when the countdown ends")
	ErrAuthRequired            = newError(KindUnauthorized, "AUTH_REQUIRED", "Authentication required")
	ErrInvalidToken            = newError(KindUnauthorized, "INVALID_TOKEN", "Token is invalid or expired")
	ErrForbidden               = newError(KindForbidden, "FORBIDDEN", "Insufficient permissions")
	ErrMediaUnavailable        = newError(KindUnavailable, "MEDIA_UNAVAILABLE", "Image uploads are not configured")
	ErrImageUpload             = newError(KindUpstream, "IMAGE_UPLOAD_FAILED", "Image upload failed")
	ErrInvalidImage            = Validation("INVALID_IMAGE", "Image must be a jpg, png or webp file up to 5MB")
)

// MinimumOrderNotMet carries the coupon minimum in the message
func MinimumOrderNotMet(minimum float64) *AppError {
	return newError(KindBusinessRule, ErrMinimumOrderNotMet.Code,
		fmt.Sprintf("Minimum order value of %.2f not met", minimum))
}
