package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"puja-booking-server/cache"
	"puja-booking-server/config"
	"puja-booking-server/database"
	"puja-booking-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fixture struct {
	db        *gorm.DB
	bookings  *BookingService
	coupons   *CouponService
	publisher *recordingPublisher
	client    *models.Client
	agent     *models.Agent
	service   *models.Service
	puja      *models.Puja
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	client := &models.Client{Name: "Meera", Email: "meera@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(client).Error)
	agent := &models.Agent{Name: "Suresh", Email: "suresh@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(agent).Error)
	service := &models.Service{Name: "Griha Pravesh", IsActive: true, Prices: []models.ServicePrice{
		{Label: "Basic", Price: 1000},
		{Label: "Premium", Price: 2500},
	}}
	require.NoError(t, db.Create(service).Error)
	puja := &models.Puja{Name: "Satyanarayan Katha", Price: 99, IsActive: true}
	require.NoError(t, db.Create(puja).Error)

	coupons := NewCouponService(database.NewCouponStore(db), cache.NewMemoryCache(time.Minute),
		PricingPolicy{ExcludedTotals: []float64{99}}, nil)
	publisher := &recordingPublisher{}
	bookings := NewBookingService(database.NewBookingStore(db), database.NewCatalogStore(db), coupons, publisher, nil)

	return &fixture{
		db: db, bookings: bookings, coupons: coupons, publisher: publisher,
		client: client, agent: agent, service: service, puja: puja,
	}
}

func boolPtr(b bool) *bool { return &b }
func uintPtr(u uint) *uint { return &u }
