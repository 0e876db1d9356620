package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SentEventPurger removes delivered outbox events
type SentEventPurger interface {
	PurgeSent(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpirationJob drops delivered outbox events once they are older than the
// retention window; failed and pending events are never touched
type ExpirationJob struct {
	purger    SentEventPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stopChan  chan bool
}

// NewExpirationJob creates a new expiration job
func NewExpirationJob(purger SentEventPurger, retention, interval time.Duration) *ExpirationJob {
	return &ExpirationJob{
		purger:    purger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan bool),
	}
}

// Start begins the expiration job
func (j *ExpirationJob) Start() {
	go j.run()
	log.Info().Dur("retention", j.retention).Msg("outbox expiration job started")
}

// Stop stops the expiration job
func (j *ExpirationJob) Stop() {
	j.stopChan <- true
	log.Info().Msg("outbox expiration job stopped")
}

func (j *ExpirationJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(context.Background())
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce purges everything sent before now minus retention
func (j *ExpirationJob) RunOnce(ctx context.Context) int64 {
	if j.retention <= 0 {
		return 0
	}
	n, err := j.purger.PurgeSent(ctx, j.now().Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("error purging sent outbox events")
		return 0
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("expired outbox events removed")
	}
	return n
}
