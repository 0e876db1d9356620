package models

import (
	"time"

	"gorm.io/gorm"

	"puja-booking-server/types"
)

// RefreshToken is a long-lived, revocable token that mints new access tokens
type RefreshToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Token     string     `json:"-" gorm:"size:255;uniqueIndex;not null"`
	SubjectID uint       `json:"subjectId" gorm:"not null;index:idx_refresh_subject"`
	Role      types.Role `json:"role" gorm:"type:varchar(20);not null;index:idx_refresh_subject"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	IsRevoked bool       `json:"isRevoked" gorm:"not null;index"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`

	// Device information for security
	UserAgent string `json:"userAgent" gorm:"size:500"`
	IPAddress string `json:"ipAddress" gorm:"size:45"`
}

// TableName specifies the table name for the RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsValid checks if the refresh token is valid (not expired and not revoked)
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked
}

// BeforeCreate is a GORM hook that runs before creating a refresh token
func (rt *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	// Set default expiration to 30 days
	if rt.ExpiresAt.IsZero() {
		rt.ExpiresAt = time.Now().Add(30 * 24 * time.Hour)
	}
	return nil
}
