package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-booking-server/cache"
	"puja-booking-server/database"
	"puja-booking-server/models"
	"puja-booking-server/types"
)

type countingRepo struct {
	*database.CouponStore
	lookups int
}

func (r *countingRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.lookups++
	return r.CouponStore.FindByCode(ctx, code)
}

func newCouponService(t *testing.T) (*CouponService, *countingRepo) {
	t.Helper()
	repo := &countingRepo{CouponStore: database.NewCouponStore(newTestDB(t))}
	svc := NewCouponService(repo, cache.NewMemoryCache(time.Minute), PricingPolicy{ExcludedTotals: []float64{99}}, nil)
	return svc, repo
}

func TestCouponServiceVerify(t *testing.T) {
	svc, _ := newCouponService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CouponInput{Code: "diwali20", DiscountType: models.DiscountTypePercentage, DiscountValue: 20, MinOrderValue: 500})
	require.NoError(t, err)

	res, err := svc.Verify(ctx, "Diwali20", 1000)
	require.NoError(t, err)
	assert.Equal(t, "DIWALI20", res.Code)
	assert.Equal(t, 200.0, res.DiscountAmount)
	assert.Equal(t, 800.0, res.NewTotal)
}

func TestCouponServiceVerifyErrors(t *testing.T) {
	svc, _ := newCouponService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "  ", 100)
	assert.ErrorIs(t, err, types.ErrMissingCouponCode)

	_, err = svc.Verify(ctx, "UNKNOWN", 100)
	assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon)

	inactive := false
	_, err = svc.Create(ctx, CouponInput{Code: "OLD", DiscountType: models.DiscountTypeFlat, DiscountValue: 10, IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "old", 100)
	assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon)
}

func TestCouponServiceCachesLookups(t *testing.T) {
	svc, repo := newCouponService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CouponInput{Code: "FLAT50", DiscountType: models.DiscountTypeFlat, DiscountValue: 50})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Verify(ctx, "flat50", 200)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.lookups)
}

func TestCouponServiceUpdateInvalidatesCache(t *testing.T) {
	svc, _ := newCouponService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CouponInput{Code: "FLAT50", DiscountType: models.DiscountTypeFlat, DiscountValue: 50})
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "FLAT50", 200)
	require.NoError(t, err)

	off := false
	_, err = svc.Update(ctx, c.ID, CouponInput{Code: "FLAT50", DiscountType: models.DiscountTypeFlat, DiscountValue: 50, IsActive: &off})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "FLAT50", 200)
	assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.Verify(ctx, "FLAT50", 200)
	assert.ErrorIs(t, err, types.ErrInvalidOrInactiveCoupon)
}

func TestCouponServiceValidatesInput(t *testing.T) {
	svc, _ := newCouponService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CouponInput
	}{
		{"missing code", CouponInput{DiscountType: models.DiscountTypeFlat}},
		{"bad type", CouponInput{Code: "X", DiscountType: "BOGO"}},
		{"negative value", CouponInput{Code: "X", DiscountType: models.DiscountTypeFlat, DiscountValue: -1}},
		{"percentage above 100", CouponInput{Code: "X", DiscountType: models.DiscountTypePercentage, DiscountValue: 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.Error(t, err)
		})
	}
}
