package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

var defaultPolicy = PricingPolicy{ExcludedTotals: []float64{99}}

func percent(value, min float64) *models.Coupon {
	return &models.Coupon{Code: "PCT", DiscountType: models.DiscountTypePercentage, DiscountValue: value, MinOrderValue: min, IsActive: true}
}

func flat(value, min float64) *models.Coupon {
	return &models.Coupon{Code: "FLAT", DiscountType: models.DiscountTypeFlat, DiscountValue: value, MinOrderValue: min, IsActive: true}
}

func TestEvaluateCouponPercentageExample(t *testing.T) {
	res, err := EvaluateCoupon(percent(20, 500), 1000, defaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, 200.0, res.DiscountAmount)
	assert.Equal(t, 800.0, res.NewTotal)
	assert.Equal(t, "PCT", res.Code)
	assert.Equal(t, models.DiscountTypePercentage, res.DiscountType)
	assert.Equal(t, 20.0, res.DiscountValue)
}

func TestEvaluateCouponInactiveAlwaysFails(t *testing.T) {
	c := percent(10, 0)
	c.IsActive = false
	for _, total := range []float64{0, 1, 99, 500, 1e6, -5, math.NaN()} {
		_, err := EvaluateCoupon(c, total, defaultPolicy)
		assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon, "total %v", total)
	}

	_, err := EvaluateCoupon(nil, 100, defaultPolicy)
	assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon)
}

func TestEvaluateCouponBelowMinimum(t *testing.T) {
	for _, total := range []float64{0, 10, 499.99} {
		_, err := EvaluateCoupon(percent(10, 500), total, defaultPolicy)
		require.ErrorIs(t, err, types.ErrMinimumOrderNotMet)
		assert.Contains(t, err.Error(), "500.00")
	}
}

func TestEvaluateCouponExcludedAmount(t *testing.T) {
	_, err := EvaluateCoupon(flat(10, 0), 99, defaultPolicy)
	assert.ErrorIs(t, err, types.ErrExcludedOrderAmount)

	_, err = EvaluateCoupon(percent(50, 99), 99, defaultPolicy)
	assert.ErrorIs(t, err, types.ErrExcludedOrderAmount)

	// minimum is checked first
	_, err = EvaluateCoupon(flat(10, 100), 99, defaultPolicy)
	assert.ErrorIs(t, err, types.ErrMinimumOrderNotMet)

	// amounts must match exactly
	res, err := EvaluateCoupon(flat(10, 0), 99.001, defaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.DiscountAmount)

	// the list is configurable
	res, err = EvaluateCoupon(flat(10, 0), 99, PricingPolicy{})
	require.NoError(t, err)
	assert.Equal(t, 89.0, res.NewTotal)

	_, err = EvaluateCoupon(flat(10, 0), 199.5, PricingPolicy{ExcludedTotals: []float64{99, 199.5}})
	assert.ErrorIs(t, err, types.ErrExcludedOrderAmount)
}

func TestEvaluateCouponRejectsBadTotals(t *testing.T) {
	for _, total := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EvaluateCoupon(flat(10, 0), total, defaultPolicy)
		assert.ErrorIs(t, err, types.ErrInvalidOrderTotal)
	}
}

func TestEvaluateCouponUnsupportedType(t *testing.T) {
	c := flat(10, 0)
	c.DiscountType = "BOGO"
	_, err := EvaluateCoupon(c, 100, defaultPolicy)
	assert.ErrorIs(t, err, types.ErrUnsupportedDiscountType)
}

func TestEvaluateCouponFlatClampsToTotal(t *testing.T) {
	res, err := EvaluateCoupon(flat(500, 0), 120, defaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, 120.0, res.DiscountAmount)
	assert.Equal(t, 0.0, res.NewTotal)
}

func TestEvaluateCouponRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		coupon   *models.Coupon
		total    float64
		discount float64
		newTotal float64
	}{
		{"half cent rounds up", percent(12.5, 0), 1.0, 0.13, 0.87},
		{"below half rounds down", percent(10, 0), 10.04, 1.0, 9.04},
		{"exact cents", percent(15, 0), 200, 30, 170},
		{"third", percent(33.33, 0), 100, 33.33, 66.67},
		{"full percentage", percent(100, 0), 1234.56, 1234.56, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EvaluateCoupon(tt.coupon, tt.total, defaultPolicy)
			require.NoError(t, err)
			assert.InDelta(t, tt.discount, res.DiscountAmount, 1e-9)
			assert.InDelta(t, tt.newTotal, res.NewTotal, 1e-9)
		})
	}
}

func TestEvaluateCouponPercentageProperties(t *testing.T) {
	for _, total := range []float64{0, 0.01, 1, 17.35, 100, 250.75, 999.99, 10000} {
		for _, value := range []float64{0, 1, 7.5, 20, 50, 99.99, 100} {
			res, err := EvaluateCoupon(percent(value, 0), total, PricingPolicy{})
			require.NoError(t, err)
			assert.LessOrEqual(t, res.DiscountAmount, total)
			assert.GreaterOrEqual(t, res.NewTotal, 0.0)
			assert.InDelta(t, total, res.DiscountAmount+res.NewTotal, 1e-9)
			assert.InDelta(t, math.Round(total*value)/100, res.DiscountAmount, 0.0100001)
		}
	}
}

func TestEvaluateCouponIsDeterministic(t *testing.T) {
	a, errA := EvaluateCoupon(percent(17, 100), 345.67, defaultPolicy)
	b, errB := EvaluateCoupon(percent(17, 100), 345.67, defaultPolicy)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}
