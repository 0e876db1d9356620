package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"puja-booking-server/models"
	"puja-booking-server/types"
)

// OutboxStore reads and settles outbox events for the dispatcher
type OutboxStore struct {
	db *gorm.DB
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Enqueue inserts events outside of any booking transaction
func (s *OutboxStore) Enqueue(ctx context.Context, events ...*models.OutboxEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertEvents(tx, events)
	})
}

// Claim leases up to limit due events. A claimed event is hidden from other
// dispatchers until the lease expires, and its attempt counter is bumped.
func (s *OutboxStore) Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.OutboxEvent, error) {
	var due []models.OutboxEvent
	err := s.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, errors.Wrap(err, "find due outbox events")
	}

	claimed := make([]models.OutboxEvent, 0, len(due))
	for _, e := range due {
		res := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ? AND status = ? AND attempts = ?", e.ID, models.OutboxStatusPending, e.Attempts).
			Updates(map[string]interface{}{
				"attempts":        e.Attempts + 1,
				"next_attempt_at": now.Add(lease),
			})
		if res.Error != nil {
			return claimed, errors.Wrapf(res.Error, "claim outbox event %s", e.ID)
		}
		if res.RowsAffected == 0 {
			continue // another dispatcher won
		}
		e.Attempts++
		e.NextAttemptAt = now.Add(lease)
		claimed = append(claimed, e)
	}
	return claimed, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.OutboxStatusSent,
			"sent_at":    at,
			"last_error": "",
		}).Error
	return errors.Wrapf(err, "mark outbox event %s sent", id)
}

// MarkFailed records a failed attempt. A zero retryAt makes the failure terminal.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string, cause string, retryAt time.Time) error {
	updates := map[string]interface{}{"last_error": cause}
	if retryAt.IsZero() {
		updates["status"] = models.OutboxStatusFailed
	} else {
		updates["next_attempt_at"] = retryAt
	}
	err := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
	return errors.Wrapf(err, "mark outbox event %s failed", id)
}

func (s *OutboxStore) FindByID(ctx context.Context, id string) (*models.OutboxEvent, error) {
	var event models.OutboxEvent
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrOutboxEventNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find outbox event %s", id)
	}
	return &event, nil
}

func (s *OutboxStore) List(ctx context.Context, status models.OutboxStatus, page, limit int) ([]models.OutboxEvent, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.OutboxEvent{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count outbox events")
	}
	var events []models.OutboxEvent
	if err := q.Scopes(Paginate(page, limit)).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list outbox events")
	}
	return events, total, nil
}

// Retry puts a failed event back in the queue with a fresh attempt budget
func (s *OutboxStore) Retry(ctx context.Context, id string, now time.Time) (*models.OutboxEvent, error) {
	event, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.OutboxStatusFailed {
		return nil, types.Conflict("OUTBOX_NOT_FAILED", "Only failed events can be retried")
	}
	res := s.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND status = ?", id, models.OutboxStatusFailed).
		Updates(map[string]interface{}{
			"status":          models.OutboxStatusPending,
			"attempts":        0,
			"next_attempt_at": now,
		})
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "retry outbox event %s", id)
	}
	if res.RowsAffected == 0 {
		return nil, types.Conflict("OUTBOX_NOT_FAILED", "Only failed events can be retried")
	}
	return s.FindByID(ctx, id)
}

// PurgeSent deletes delivered events sent before cutoff
func (s *OutboxStore) PurgeSent(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", models.OutboxStatusSent, cutoff).
		Delete(&models.OutboxEvent{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge sent outbox events")
	}
	return res.RowsAffected, nil
}
