package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-booking-server/config"
	"puja-booking-server/models"
)

func TestPushPostsRow(t *testing.T) {
	var got models.BookingSheetRow
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		secret = r.Header.Get("X-Webhook-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.SheetsConfig{WebhookURL: srv.URL, Secret: "s3", Timeout: time.Second})
	err := c.Push(context.Background(), models.BookingSheetRow{BookingID: 9, ClientName: "Meera", Price: 900})
	require.NoError(t, err)

	assert.Equal(t, "s3", secret)
	assert.Equal(t, uint(9), got.BookingID)
	assert.Equal(t, "Meera", got.ClientName)
}

func TestPushReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(config.SheetsConfig{WebhookURL: srv.URL})
	err := c.Push(context.Background(), models.BookingSheetRow{BookingID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestDisabledClientIsNoop(t *testing.T) {
	c := NewClient(config.SheetsConfig{})
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Push(context.Background(), models.BookingSheetRow{BookingID: 1}))
}
