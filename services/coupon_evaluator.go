package services

import (
	"math"

	"github.com/shopspring/decimal"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

var hundred = decimal.NewFromInt(100)

// PricingPolicy holds the platform-wide coupon rules that are not stored
// on individual coupons
type PricingPolicy struct {
	// ExcludedTotals are order amounts no coupon may ever apply to
	ExcludedTotals []float64
}

// IsExcluded reports whether total matches an excluded amount exactly
func (p PricingPolicy) IsExcluded(total decimal.Decimal) bool {
	for _, amount := range p.ExcludedTotals {
		if total.Equal(decimal.NewFromFloat(amount)) {
			return true
		}
	}
	return false
}

// CouponResult is the outcome of applying a coupon to an order
type CouponResult struct {
	Code           string              `json:"code"`
	DiscountType   models.DiscountType `json:"discountType"`
	DiscountValue  float64             `json:"discountValue"`
	DiscountAmount float64             `json:"discountAmount"`
	NewTotal       float64             `json:"newTotal"`
}

// EvaluateCoupon decides whether coupon applies to orderTotal and computes
// the discount. A nil coupon is treated like an inactive one. The first
// failing rule wins: activity, order total, minimum order value, excluded
// amount.
func EvaluateCoupon(coupon *models.Coupon, orderTotal float64, policy PricingPolicy) (CouponResult, error) {
	if coupon == nil || !coupon.IsActive {
		return CouponResult{}, types.ErrInvalidOrInactiveCoupon
	}
	if math.IsNaN(orderTotal) || math.IsInf(orderTotal, 0) || orderTotal < 0 {
		return CouponResult{}, types.ErrInvalidOrderTotal
	}

	total := decimal.NewFromFloat(orderTotal)
	if total.LessThan(decimal.NewFromFloat(coupon.MinOrderValue)) {
		return CouponResult{}, types.MinimumOrderNotMet(coupon.MinOrderValue)
	}
	if policy.IsExcluded(total) {
		return CouponResult{}, types.ErrExcludedOrderAmount
	}

	value := decimal.NewFromFloat(coupon.DiscountValue)
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = total.Mul(value).Div(hundred)
	case models.DiscountTypeFlat:
		discount = value
	default:
		return CouponResult{}, types.ErrUnsupportedDiscountType
	}

	// Round half away from zero is half-up for the non-negative amounts here.
	// Clamp again after rounding so a sub-cent total cannot go negative.
	discount = clamp(discount, total).Round(2)
	discount = clamp(discount, total)

	return CouponResult{
		Code:           coupon.Code,
		DiscountType:   coupon.DiscountType,
		DiscountValue:  coupon.DiscountValue,
		DiscountAmount: discount.InexactFloat64(),
		NewTotal:       total.Sub(discount).InexactFloat64(),
	}, nil
}

func clamp(discount, total decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(total) {
		return total
	}
	return discount
}
