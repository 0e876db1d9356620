package models

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// IsTerminal reports whether no further changes are allowed
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
)

type Booking struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	ClientID          uint          `json:"clientId" gorm:"not null;index"`
	LocationID        *uint         `json:"locationId" gorm:"index"`
	ServiceID         *uint         `json:"serviceId" gorm:"index"`
	PujaID            *uint         `json:"pujaId" gorm:"index"`
	PriceCategory     string        `json:"priceCategory" gorm:"size:100"`
	OriginalPrice     float64       `json:"originalPrice" gorm:"type:decimal(10,2);not null"`
	Price             float64       `json:"price" gorm:"type:decimal(10,2);not null"`
	CouponCode        string        `json:"couponCode,omitempty" gorm:"size:50"`
	DiscountAmount    float64       `json:"discountAmount" gorm:"type:decimal(10,2);not null"`
	AgentID           *uint         `json:"agentId" gorm:"index"`
	PaymentStatus     PaymentStatus `json:"paymentStatus" gorm:"type:varchar(20);not null"`
	IsPaymentVerified bool          `json:"isPaymentVerified" gorm:"not null"`
	Status            BookingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TransactionID     string        `json:"transactionId" gorm:"size:100"`
	Notes             string        `json:"notes,omitempty" gorm:"size:1000"`
	ConfirmedAt       *time.Time    `json:"confirmedAt"`
	Version           uint          `json:"version" gorm:"not null"`
	CreatedAt         time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	Client   *Client   `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	Service  *Service  `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Puja     *Puja     `json:"puja,omitempty" gorm:"foreignKey:PujaID"`
	Agent    *Agent    `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate fills in the lifecycle defaults of a new booking
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.Status == "" {
		b.Status = BookingStatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PaymentStatusPending
	}
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}

// HasAgent reports whether an agent is assigned
func (b *Booking) HasAgent() bool {
	return b.AgentID != nil && *b.AgentID != 0
}

// ItemName returns the booked service or puja name when loaded
func (b *Booking) ItemName() string {
	switch {
	case b.Service != nil:
		return b.Service.Name
	case b.Puja != nil:
		return b.Puja.Name
	default:
		return ""
	}
}
