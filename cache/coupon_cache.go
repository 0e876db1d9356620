// Package cache keeps recently verified coupons close to the request path.
package cache

import (
	"context"
	"sync"
	"time"

	"puja-booking-server/models"
)

// CouponCache stores coupons keyed by their normalized code
type CouponCache interface {
	Get(ctx context.Context, code string) (*models.Coupon, bool)
	Set(ctx context.Context, coupon *models.Coupon)
	Delete(ctx context.Context, code string)
	Close() error
}

type entry struct {
	coupon  models.Coupon
	expires time.Time
}

// MemoryCache is a process-local TTL cache
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, code string) (*models.Coupon, bool) {
	c.mu.RLock()
	e, ok := c.store[models.NormalizeCouponCode(code)]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	coupon := e.coupon
	return &coupon, true
}

func (c *MemoryCache) Set(_ context.Context, coupon *models.Coupon) {
	if coupon == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[models.NormalizeCouponCode(coupon.Code)] = entry{coupon: *coupon, expires: c.now().Add(c.ttl)}
}

func (c *MemoryCache) Delete(_ context.Context, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, models.NormalizeCouponCode(code))
}

// Close drops every entry
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]entry)
	return nil
}
