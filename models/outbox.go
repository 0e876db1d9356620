package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxKind string

const (
	OutboxKindBookingConfirmed OutboxKind = "booking_confirmed"
	OutboxKindSheetSync        OutboxKind = "sheet_sync"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxEvent is a side effect recorded in the same transaction as the
// booking change that caused it, delivered later by the dispatcher
type OutboxEvent struct {
	ID            string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	Kind          OutboxKind   `json:"kind" gorm:"type:varchar(40);not null"`
	AggregateID   uint         `json:"aggregateId" gorm:"not null;index"`
	Payload       string       `json:"payload" gorm:"type:text;not null"`
	Status        OutboxStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_outbox_due"`
	Attempts      int          `json:"attempts" gorm:"not null"`
	NextAttemptAt time.Time    `json:"nextAttemptAt" gorm:"not null;index:idx_outbox_due"`
	LastError     string       `json:"lastError,omitempty" gorm:"type:text"`
	SentAt        *time.Time   `json:"sentAt"`
	CreatedAt     time.Time    `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time    `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the OutboxEvent model
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEvent marshals payload into a pending event due immediately
func NewOutboxEvent(kind OutboxKind, aggregateID uint, payload interface{}) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.NewString(),
		Kind:          kind,
		AggregateID:   aggregateID,
		Payload:       string(body),
		Status:        OutboxStatusPending,
		NextAttemptAt: time.Now(),
	}, nil
}

// Decode unmarshals the payload into v
func (e *OutboxEvent) Decode(v interface{}) error {
	return json.Unmarshal([]byte(e.Payload), v)
}

// ConfirmationPayload is the body of a booking_confirmed event
type ConfirmationPayload struct {
	BookingID uint   `json:"bookingId"`
	To        string `json:"to"`
	Name      string `json:"name"`
	AgentName string `json:"agentName"`
}

// BookingSheetRow is the body of a sheet_sync event
type BookingSheetRow struct {
	BookingID      uint      `json:"bookingId"`
	ClientName     string    `json:"clientName"`
	ClientEmail    string    `json:"clientEmail"`
	Item           string    `json:"item"`
	PriceCategory  string    `json:"priceCategory"`
	Price          float64   `json:"price"`
	DiscountAmount float64   `json:"discountAmount"`
	CouponCode     string    `json:"couponCode"`
	TransactionID  string    `json:"transactionId"`
	Status         string    `json:"status"`
	AgentName      string    `json:"agentName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewBookingSheetRow flattens a booking with its preloaded relations
func NewBookingSheetRow(b *Booking) BookingSheetRow {
	row := BookingSheetRow{
		BookingID:      b.ID,
		Item:           b.ItemName(),
		PriceCategory:  b.PriceCategory,
		Price:          b.Price,
		DiscountAmount: b.DiscountAmount,
		CouponCode:     b.CouponCode,
		TransactionID:  b.TransactionID,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt,
	}
	if b.Client != nil {
		row.ClientName = b.Client.Name
		row.ClientEmail = b.Client.Email
	}
	if b.Agent != nil {
		row.AgentName = b.Agent.Name
	}
	return row
}
