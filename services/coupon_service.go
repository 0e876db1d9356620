package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"puja-booking-server/cache"
	"puja-booking-server/metrics"
	"puja-booking-server/models"
	"puja-booking-server/types"
)

// CouponRepository is the persistence the coupon service needs
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uint) (*models.Coupon, error)
	List(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Save(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uint) error
}

// CouponService verifies coupons against orders and manages the catalogue
type CouponService struct {
	repo    CouponRepository
	cache   cache.CouponCache
	policy  PricingPolicy
	metrics *metrics.Metrics
}

func NewCouponService(repo CouponRepository, c cache.CouponCache, policy PricingPolicy, m *metrics.Metrics) *CouponService {
	return &CouponService{repo: repo, cache: c, policy: policy, metrics: m}
}

// Lookup finds a coupon by code through the cache. A missing coupon is (nil, nil).
func (s *CouponService) Lookup(ctx context.Context, code string) (*models.Coupon, error) {
	code = models.NormalizeCouponCode(code)
	if coupon, ok := s.cache.Get(ctx, code); ok {
		return coupon, nil
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if coupon != nil {
		s.cache.Set(ctx, coupon)
	}
	return coupon, nil
}

// Verify evaluates the coupon named by code against orderTotal
func (s *CouponService) Verify(ctx context.Context, code string, orderTotal float64) (CouponResult, error) {
	if strings.TrimSpace(code) == "" {
		s.metrics.CouponChecked(types.ErrMissingCouponCode.Code)
		return CouponResult{}, types.ErrMissingCouponCode
	}
	coupon, err := s.Lookup(ctx, code)
	if err != nil {
		return CouponResult{}, err
	}

	result, err := EvaluateCoupon(coupon, orderTotal, s.policy)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			s.metrics.CouponChecked(appErr.Code)
		}
		return CouponResult{}, err
	}
	s.metrics.CouponChecked("APPLIED")
	log.Debug().Str("code", result.Code).Float64("discount", result.DiscountAmount).Msg("coupon applied")
	return result, nil
}

// CouponInput carries the admin-editable coupon fields
type CouponInput struct {
	Code          string              `json:"code" binding:"required"`
	DiscountType  models.DiscountType `json:"discountType" binding:"required"`
	DiscountValue float64             `json:"discountValue"`
	MinOrderValue float64             `json:"minOrderValue"`
	IsActive      *bool               `json:"isActive"`
}

func (in CouponInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return types.ErrMissingCouponCode
	}
	if !in.DiscountType.IsValid() {
		return types.ErrUnsupportedDiscountType
	}
	if in.DiscountValue < 0 || in.MinOrderValue < 0 {
		return types.Validation("INVALID_COUPON_VALUE", "Discount and minimum order values must be non-negative")
	}
	if in.DiscountType == models.DiscountTypePercentage && in.DiscountValue > 100 {
		return types.Validation("INVALID_COUPON_VALUE", "Percentage discounts cannot exceed 100")
	}
	return nil
}

func (in CouponInput) applyTo(c *models.Coupon) {
	c.Code = models.NormalizeCouponCode(in.Code)
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.MinOrderValue = in.MinOrderValue
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *CouponService) List(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	return s.repo.List(ctx, page, limit)
}

// Create adds a coupon; it is active unless the input says otherwise
func (s *CouponService) Create(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	coupon := &models.Coupon{IsActive: true}
	in.applyTo(coupon)
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update replaces the editable fields and drops cached copies of both the
// old and the new code
func (s *CouponService) Update(ctx context.Context, id uint, in CouponInput) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCode := coupon.Code
	in.applyTo(coupon)
	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, oldCode)
	s.cache.Delete(ctx, coupon.Code)
	return coupon, nil
}

func (s *CouponService) Delete(ctx context.Context, id uint) error {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, coupon.Code)
	return nil
}
