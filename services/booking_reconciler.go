package services

import (
	"puja-booking-server/models"
	"puja-booking-server/types"
)

// BookingPatch is a partial admin update. Nil fields are left alone.
type BookingPatch struct {
	IsPaymentVerified *bool `json:"isPaymentVerified"`
	AgentID           *uint `json:"agentId"`
}

// ApplyBookingUpdate applies patch to current and recomputes the derived
// status. notify is true only on the edge into Confirmed, so a booking
// produces at most one confirmation no matter how often it is patched.
// Completed and Cancelled bookings are returned unchanged.
func ApplyBookingUpdate(current models.Booking, patch BookingPatch) (next models.Booking, notify bool) {
	next = current
	if current.Status.IsTerminal() {
		return next, false
	}

	if patch.IsPaymentVerified != nil {
		next.IsPaymentVerified = *patch.IsPaymentVerified
		if next.IsPaymentVerified {
			next.PaymentStatus = models.PaymentStatusCompleted
		} else {
			next.PaymentStatus = models.PaymentStatusPending
		}
	}

	if patch.AgentID != nil && *patch.AgentID != 0 {
		agentID := *patch.AgentID
		next.AgentID = &agentID
		if current.Agent != nil && current.Agent.ID != agentID {
			next.Agent = nil
		}
	}

	if current.Status == models.BookingStatusPending && next.IsPaymentVerified && next.HasAgent() {
		next.Status = models.BookingStatusConfirmed
		notify = true
	}
	return next, notify
}

var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusPending:   {models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCompleted, models.BookingStatusCancelled},
}

// TransitionBooking moves a booking to an explicitly requested status.
// Confirmed is never a valid target; it is only reached through
// ApplyBookingUpdate.
func TransitionBooking(current models.Booking, target models.BookingStatus) (models.Booking, error) {
	for _, s := range allowedTransitions[current.Status] {
		if s == target {
			current.Status = target
			return current, nil
		}
	}
	return current, types.ErrInvalidTransition
}

func bookingChanged(a, b models.Booking) bool {
	return a.Status != b.Status ||
		a.PaymentStatus != b.PaymentStatus ||
		a.IsPaymentVerified != b.IsPaymentVerified ||
		!sameID(a.AgentID, b.AgentID)
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
