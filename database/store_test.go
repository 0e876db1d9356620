package database

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"puja-booking-server/config"
	"puja-booking-server/models"
	"puja-booking-server/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seedBooking(t *testing.T, db *gorm.DB) *models.Booking {
	t.Helper()
	client := &models.Client{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(client).Error)
	puja := &models.Puja{Name: "Rudrabhishek", Price: 1100, IsActive: true}
	require.NoError(t, db.Create(puja).Error)

	b, err := NewBookingStore(db).Create(context.Background(), &models.Booking{
		ClientID:      client.ID,
		PujaID:        &puja.ID,
		OriginalPrice: 1100,
		Price:         1100,
	}, nil)
	require.NoError(t, err)
	return b
}

func TestCouponStoreFindByCode(t *testing.T) {
	db := newTestDB(t)
	store := NewCouponStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Coupon{
		Code: " diwali20 ", DiscountType: models.DiscountTypePercentage, DiscountValue: 20, IsActive: true,
	}))

	c, err := store.FindByCode(ctx, "Diwali20")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "DIWALI20", c.Code)

	missing, err := store.FindByCode(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCouponStoreDeleteMissing(t *testing.T) {
	store := NewCouponStore(newTestDB(t))
	err := store.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrCouponNotFound)
}

func TestBookingStoreCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)

	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, models.PaymentStatusPending, b.PaymentStatus)
	assert.False(t, b.IsPaymentVerified)
	assert.Equal(t, uint(1), b.Version)
	require.NotNil(t, b.Client)
	assert.Equal(t, "Asha", b.Client.Name)
	assert.Equal(t, "Rudrabhishek", b.ItemName())
}

func TestBookingStoreCreateWritesEvents(t *testing.T) {
	db := newTestDB(t)
	client := &models.Client{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(client).Error)

	b, err := NewBookingStore(db).Create(context.Background(), &models.Booking{ClientID: client.ID, Price: 500, OriginalPrice: 500},
		func(created *models.Booking) ([]*models.OutboxEvent, error) {
			e, err := models.NewOutboxEvent(models.OutboxKindSheetSync, created.ID, models.NewBookingSheetRow(created))
			return []*models.OutboxEvent{e}, err
		})
	require.NoError(t, err)

	var events []models.OutboxEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, b.ID, events[0].AggregateID)

	var row models.BookingSheetRow
	require.NoError(t, events[0].Decode(&row))
	assert.Equal(t, "ravi@example.com", row.ClientEmail)
}

func TestFindAndUpdateBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)
	store := NewBookingStore(db)

	updated, err := store.FindAndUpdate(context.Background(), b.ID, func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		current.IsPaymentVerified = true
		return &current, nil, nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPaymentVerified)
	assert.Equal(t, b.Version+1, updated.Version)
}

func TestFindAndUpdateNotFound(t *testing.T) {
	store := NewBookingStore(newTestDB(t))
	_, err := store.FindAndUpdate(context.Background(), 999, func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		return &current, nil, nil
	})
	assert.ErrorIs(t, err, types.ErrBookingNotFound)
}

func TestFindAndUpdateNilLeavesRow(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)

	got, err := NewBookingStore(db).FindAndUpdate(context.Background(), b.ID, func(*gorm.DB, models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		return nil, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, b.Version, got.Version)
}

func TestFindAndUpdateRetriesOnVersionConflict(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)
	store := NewBookingStore(db)

	var calls int32
	updated, err := store.FindAndUpdate(context.Background(), b.ID, func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// a concurrent writer commits between our read and our write
			require.NoError(t, tx.Model(&models.Booking{}).Where("id = ?", current.ID).
				Update("version", gorm.Expr("version + 1")).Error)
		}
		current.TransactionID = "TXN-1"
		return &current, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "TXN-1", updated.TransactionID)
}

func TestFindAndUpdateGivesUp(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)

	_, err := NewBookingStore(db).FindAndUpdate(context.Background(), b.ID, func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		require.NoError(t, tx.Model(&models.Booking{}).Where("id = ?", current.ID).
			Update("version", gorm.Expr("version + 1")).Error)
		return &current, nil, nil
	})
	assert.ErrorIs(t, err, ErrBookingBusy)
}

func TestFindAndUpdateRollsBackEventsOnError(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)

	boom := types.Validation("BOOM", "boom")
	_, err := NewBookingStore(db).FindAndUpdate(context.Background(), b.ID, func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error) {
		return nil, nil, boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookingStoreListFilters(t *testing.T) {
	db := newTestDB(t)
	b := seedBooking(t, db)
	store := NewBookingStore(db)
	ctx := context.Background()

	list, total, err := store.List(ctx, BookingFilter{ClientID: b.ClientID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, total, err = store.List(ctx, BookingFilter{Status: models.BookingStatusConfirmed})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOutboxClaimAndSettle(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxStore(db)
	ctx := context.Background()
	now := time.Now()

	e, err := models.NewOutboxEvent(models.OutboxKindBookingConfirmed, 7, models.ConfirmationPayload{BookingID: 7})
	require.NoError(t, err)
	e.NextAttemptAt = now.Add(-time.Second)
	require.NoError(t, store.Enqueue(ctx, e))

	claimed, err := store.Claim(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].Attempts)

	// leased events are not handed out twice
	again, err := store.Claim(ctx, now, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, store.MarkSent(ctx, e.ID, now))
	got, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxStatusSent, got.Status)
	assert.NotNil(t, got.SentAt)
}

func TestOutboxFailAndRetry(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxStore(db)
	ctx := context.Background()
	now := time.Now()

	e, err := models.NewOutboxEvent(models.OutboxKindSheetSync, 3, models.BookingSheetRow{BookingID: 3})
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(ctx, e))

	_, err = store.Retry(ctx, e.ID, now)
	assert.Error(t, err, "pending events cannot be retried")

	require.NoError(t, store.MarkFailed(ctx, e.ID, "smtp down", time.Time{}))
	failed, _, err := store.List(ctx, models.OutboxStatusFailed, 1, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "smtp down", failed[0].LastError)

	retried, err := store.Retry(ctx, e.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.OutboxStatusPending, retried.Status)
	assert.Zero(t, retried.Attempts)

	_, err = store.Retry(ctx, "missing", now)
	assert.ErrorIs(t, err, types.ErrOutboxEventNotFound)
}

func TestOutboxPurgeSent(t *testing.T) {
	db := newTestDB(t)
	store := NewOutboxStore(db)
	ctx := context.Background()

	old, err := models.NewOutboxEvent(models.OutboxKindSheetSync, 1, map[string]int{"bookingId": 1})
	require.NoError(t, err)
	recent, err := models.NewOutboxEvent(models.OutboxKindSheetSync, 2, map[string]int{"bookingId": 2})
	require.NoError(t, err)
	pending, err := models.NewOutboxEvent(models.OutboxKindSheetSync, 3, map[string]int{"bookingId": 3})
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(ctx, old, recent, pending))

	now := time.Now()
	require.NoError(t, store.MarkSent(ctx, old.ID, now.Add(-40*24*time.Hour)))
	require.NoError(t, store.MarkSent(ctx, recent.ID, now.Add(-time.Hour)))

	n, err := store.PurgeSent(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.FindByID(ctx, old.ID)
	assert.ErrorIs(t, err, types.ErrOutboxEventNotFound)
	_, err = store.FindByID(ctx, pending.ID)
	assert.NoError(t, err)
}
