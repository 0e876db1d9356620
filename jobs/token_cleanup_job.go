package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenCleaner deletes refresh tokens past their expiry
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// TokenCleanupJob periodically removes expired refresh tokens
type TokenCleanupJob struct {
	cleaner  TokenCleaner
	interval time.Duration
	stopChan chan bool
}

// NewTokenCleanupJob creates a new token cleanup job
func NewTokenCleanupJob(cleaner TokenCleaner, interval time.Duration) *TokenCleanupJob {
	return &TokenCleanupJob{
		cleaner:  cleaner,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the cleanup job
func (j *TokenCleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("token cleanup job started")
}

// Stop stops the cleanup job
func (j *TokenCleanupJob) Stop() {
	j.stopChan <- true
	log.Info().Msg("token cleanup job stopped")
}

func (j *TokenCleanupJob) run() {
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

// RunOnce performs a single cleanup pass
func (j *TokenCleanupJob) RunOnce(ctx context.Context) {
	n, err := j.cleaner.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error cleaning up expired refresh tokens")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("expired refresh tokens cleaned up")
	}
}
