package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFlat       DiscountType = "FLAT"
)

// IsValid reports whether t is a known discount type
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFlat
}

type Coupon struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Code          string       `json:"code" gorm:"size:50;uniqueIndex;not null"`
	DiscountType  DiscountType `json:"discountType" gorm:"type:varchar(20);not null"`
	DiscountValue float64      `json:"discountValue" gorm:"type:decimal(10,2);not null"`
	MinOrderValue float64      `json:"minOrderValue" gorm:"type:decimal(10,2);not null"`
	IsActive      bool         `json:"isActive" gorm:"not null"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// TableName specifies the table name for the Coupon model
func (Coupon) TableName() string {
	return "coupons"
}

// NormalizeCouponCode trims and uppercases a code for storage and lookup
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}
