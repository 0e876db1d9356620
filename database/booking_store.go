package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

const defaultMaxCASRetries = 5

var errVersionConflict = errors.New("booking version changed concurrently")

// ErrBookingBusy is returned when every compare-and-set attempt lost a race
var ErrBookingBusy = types.Conflict("BOOKING_BUSY", "Booking is being updated, please retry")

// MutateFunc computes the next state of a booking from a freshly loaded
// copy. Reads it needs go through tx. Returning a nil booking leaves the
// row untouched. Events are inserted in the same transaction as the write.
type MutateFunc func(tx *gorm.DB, current models.Booking) (*models.Booking, []*models.OutboxEvent, error)

// EventBuilder builds outbox events for a newly created booking
type EventBuilder func(created *models.Booking) ([]*models.OutboxEvent, error)

// BookingFilter narrows List results; zero values match everything
type BookingFilter struct {
	ClientID uint
	AgentID  uint
	Status   models.BookingStatus
	Page     int
	Limit    int
}

// BookingStore persists bookings with optimistic concurrency on Version
type BookingStore struct {
	db         *gorm.DB
	maxRetries int
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db, maxRetries: defaultMaxCASRetries}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("Agent").Preload("Location").Preload("Service").Preload("Puja")
}

// Create inserts the booking and the events built for it atomically
func (s *BookingStore) Create(ctx context.Context, booking *models.Booking, build EventBuilder) (*models.Booking, error) {
	var created models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "Agent", "Location", "Service", "Puja").Create(booking).Error; err != nil {
			return errors.Wrap(err, "create booking")
		}
		if err := withRelations(tx).First(&created, booking.ID).Error; err != nil {
			return errors.Wrap(err, "reload booking")
		}
		if build == nil {
			return nil
		}
		events, err := build(&created)
		if err != nil {
			return err
		}
		return insertEvents(tx, events)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindByID loads a booking with its relations
func (s *BookingStore) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := withRelations(s.db.WithContext(ctx)).First(&booking, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrBookingNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find booking %d", id)
	}
	return &booking, nil
}

func (s *BookingStore) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Booking{})
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.AgentID != 0 {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count bookings")
	}

	var bookings []models.Booking
	if err := withRelations(q).Scopes(Paginate(f.Page, f.Limit)).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list bookings")
	}
	return bookings, total, nil
}

// FindAndUpdate atomically loads, mutates and persists one booking. The
// write only lands when the row still carries the version that was read;
// otherwise the whole read-modify-write is retried on fresh data.
func (s *BookingStore) FindAndUpdate(ctx context.Context, id uint, mutate MutateFunc) (*models.Booking, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		result, err := s.tryUpdate(ctx, id, mutate)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return result, err
	}
	return nil, ErrBookingBusy
}

func (s *BookingStore) tryUpdate(ctx context.Context, id uint, mutate MutateFunc) (*models.Booking, error) {
	var result models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Booking
		err := withRelations(tx).First(&current, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.ErrBookingNotFound
		}
		if err != nil {
			return errors.Wrapf(err, "load booking %d", id)
		}

		next, events, err := mutate(tx, current)
		if err != nil {
			return err
		}
		if next == nil {
			result = current
			return nil
		}

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND version = ?", current.ID, current.Version).
			Updates(map[string]interface{}{
				"status":              next.Status,
				"payment_status":      next.PaymentStatus,
				"is_payment_verified": next.IsPaymentVerified,
				"agent_id":            next.AgentID,
				"transaction_id":      next.TransactionID,
				"confirmed_at":        next.ConfirmedAt,
				"version":             current.Version + 1,
				"updated_at":          time.Now(),
			})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update booking %d", id)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		if err := insertEvents(tx, events); err != nil {
			return err
		}
		return withRelations(tx).First(&result, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func insertEvents(tx *gorm.DB, events []*models.OutboxEvent) error {
	for _, e := range events {
		if err := tx.Create(e).Error; err != nil {
			return errors.Wrapf(err, "enqueue %s event", e.Kind)
		}
	}
	return nil
}
