package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"puja-booking-server/config"
	"puja-booking-server/mailer"
	"puja-booking-server/metrics"
	"puja-booking-server/models"
)

const (
	claimLease = 2 * time.Minute
	// a delivered event whose MarkSent never lands is redelivered after the lease
	markSentAttempts = 3
)

// OutboxQueue is the slice of the outbox store the dispatcher uses
type OutboxQueue interface {
	Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, cause string, retryAt time.Time) error
}

// SheetPusher appends booking rows to the external spreadsheet
type SheetPusher interface {
	Push(ctx context.Context, row models.BookingSheetRow) error
}

// OutboxDispatcher delivers queued booking side effects with retries
type OutboxDispatcher struct {
	queue        OutboxQueue
	mailer       mailer.Sender
	sheets       SheetPusher
	cfg          config.OutboxConfig
	mailTimeout  time.Duration
	sheetTimeout time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time
	markDelay    time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewOutboxDispatcher creates a new outbox dispatcher
func NewOutboxDispatcher(queue OutboxQueue, sender mailer.Sender, sheets SheetPusher, cfg *config.Config, m *metrics.Metrics) *OutboxDispatcher {
	return &OutboxDispatcher{
		queue:        queue,
		mailer:       sender,
		sheets:       sheets,
		cfg:          cfg.Outbox,
		mailTimeout:  cfg.Mail.Timeout,
		sheetTimeout: cfg.Sheets.Timeout,
		metrics:      m,
		now:          time.Now,
		markDelay:    200 * time.Millisecond,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling
func (d *OutboxDispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	log.Info().Dur("interval", d.cfg.PollInterval).Msg("outbox dispatcher started")
}

// Stop waits for the in-flight batch to finish
func (d *OutboxDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
	log.Info().Msg("outbox dispatcher stopped")
}

func (d *OutboxDispatcher) run() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.ProcessDue(context.Background())
		case <-d.stopChan:
			return
		}
	}
}

// ProcessDue delivers one batch of due events and returns how many were sent
func (d *OutboxDispatcher) ProcessDue(ctx context.Context) int {
	events, err := d.queue.Claim(ctx, d.now(), d.cfg.BatchSize, claimLease)
	if err != nil {
		log.Error().Err(err).Msg("claiming outbox events failed")
	}

	sent := 0
	for _, e := range events {
		if d.deliver(ctx, e) {
			sent++
		}
	}
	return sent
}

func (d *OutboxDispatcher) deliver(ctx context.Context, e models.OutboxEvent) bool {
	logger := log.With().Str("event_id", e.ID).Str("kind", string(e.Kind)).Uint("booking_id", e.AggregateID).Int("attempt", e.Attempts).Logger()

	err := d.dispatch(ctx, e)
	if err == nil {
		if err := d.markSent(ctx, e.ID); err != nil {
			logger.Error().Err(err).Msg("failed to mark outbox event sent, it will be delivered again")
		}
		d.metrics.OutboxDelivered(string(e.Kind), "sent")
		logger.Info().Msg("outbox event delivered")
		return true
	}

	var retryAt time.Time
	result := "failed"
	if e.Attempts < d.cfg.MaxAttempts {
		retryAt = d.now().Add(Backoff(e.Attempts, d.cfg.BaseBackoff, d.cfg.MaxBackoff))
		result = "retry"
	}
	if markErr := d.queue.MarkFailed(ctx, e.ID, err.Error(), retryAt); markErr != nil {
		logger.Error().Err(markErr).Msg("failed to record outbox failure")
	}
	d.metrics.OutboxDelivered(string(e.Kind), result)

	if retryAt.IsZero() {
		logger.Error().Err(err).Msg("outbox event gave up")
	} else {
		logger.Warn().Err(err).Time("retry_at", retryAt).Msg("outbox event delivery failed")
	}
	return false
}

func (d *OutboxDispatcher) markSent(ctx context.Context, id string) error {
	var err error
	for i := 0; i < markSentAttempts; i++ {
		if err = d.queue.MarkSent(ctx, id, d.now()); err == nil {
			return nil
		}
		if i < markSentAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.markDelay):
			}
		}
	}
	return err
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, e models.OutboxEvent) error {
	switch e.Kind {
	case models.OutboxKindBookingConfirmed:
		var p models.ConfirmationPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		ctx, cancel := withTimeout(ctx, d.mailTimeout)
		defer cancel()
		return d.mailer.SendBookingConfirmation(ctx, mailer.BookingConfirmation{
			To:        p.To,
			Name:      p.Name,
			BookingID: p.BookingID,
			AgentName: p.AgentName,
		})
	case models.OutboxKindSheetSync:
		var row models.BookingSheetRow
		if err := e.Decode(&row); err != nil {
			return err
		}
		ctx, cancel := withTimeout(ctx, d.sheetTimeout)
		defer cancel()
		return d.sheets.Push(ctx, row)
	default:
		return fmt.Errorf("unknown outbox event kind %q", e.Kind)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Backoff doubles base for every attempt after the first, capped at ceiling
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt && delay < ceiling; i++ {
		delay *= 2
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}
