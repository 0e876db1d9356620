package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "")
	t.Setenv("COUPON_EXCLUDED_TOTALS", "")
	t.Setenv("LAUNCH_AT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "puja-booking.db", cfg.Database.DSN)
	assert.Equal(t, []float64{99}, cfg.Pricing.ExcludedTotals)
	assert.True(t, cfg.Launch.At.IsZero())
	assert.Equal(t, 5, cfg.Outbox.MaxAttempts)
	assert.Equal(t, 30*24*time.Hour, cfg.Outbox.Retention)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("COUPON_EXCLUDED_TOTALS", "99, 199.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LAUNCH_AT", "2030-01-02T03:04:05Z")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []float64{99, 199.5}, cfg.Pricing.ExcludedTotals)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), cfg.Launch.At.UTC())
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres", "DB_URL": ""}},
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"bad excluded totals", map[string]string{"DB_DRIVER": "sqlite", "COUPON_EXCLUDED_TOTALS": "abc"}},
		{"bad launch time", map[string]string{"DB_DRIVER": "sqlite", "LAUNCH_AT": "tomorrow"}},
		{"default secret in release", map[string]string{"DB_DRIVER": "sqlite", "GIN_MODE": "release", "JWT_SECRET": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
