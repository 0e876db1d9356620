package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanupExpiredTokens(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

func TestTokenCleanupRunOnce(t *testing.T) {
	c := &fakeCleaner{}
	job := NewTokenCleanupJob(c, time.Hour)
	job.RunOnce(context.Background())
	assert.Equal(t, 1, c.calls)

	c.err = errors.New("db down")
	assert.NotPanics(t, func() { job.RunOnce(context.Background()) })
	assert.Equal(t, 2, c.calls)
}
