package database

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

// CouponStore persists coupons
type CouponStore struct {
	db *gorm.DB
}

func NewCouponStore(db *gorm.DB) *CouponStore {
	return &CouponStore{db: db}
}

// FindByCode looks a coupon up by its normalized code. A missing coupon is
// reported as (nil, nil).
func (s *CouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.WithContext(ctx).Where("code = ?", models.NormalizeCouponCode(code)).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &coupon, nil
}

func (s *CouponStore) FindByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.WithContext(ctx).First(&coupon, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrCouponNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %d", id)
	}
	return &coupon, nil
}

func (s *CouponStore) List(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var (
		coupons []models.Coupon
		total   int64
	)
	q := s.db.WithContext(ctx).Model(&models.Coupon{}).Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count coupons")
	}
	if err := q.Scopes(Paginate(page, limit)).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list coupons")
	}
	return coupons, total, nil
}

func (s *CouponStore) Create(ctx context.Context, coupon *models.Coupon) error {
	err := s.db.WithContext(ctx).Create(coupon).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.Conflict("COUPON_EXISTS", "A coupon with this code already exists")
	}
	return errors.Wrap(err, "create coupon")
}

// Save writes every column of an existing coupon
func (s *CouponStore) Save(ctx context.Context, coupon *models.Coupon) error {
	err := s.db.WithContext(ctx).Save(coupon).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return types.Conflict("COUPON_EXISTS", "A coupon with this code already exists")
	}
	return errors.Wrap(err, "save coupon")
}

func (s *CouponStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete coupon %d", id)
	}
	if res.RowsAffected == 0 {
		return types.ErrCouponNotFound
	}
	return nil
}
