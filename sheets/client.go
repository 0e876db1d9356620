// Package sheets pushes booking rows to a spreadsheet webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"puja-booking-server/config"
	"puja-booking-server/models"
)

// Client posts booking rows to SHEETS_WEBHOOK_URL. A client without a URL
// accepts every row and does nothing.
type Client struct {
	url    string
	secret string
	http   *http.Client
}

func NewClient(cfg config.SheetsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.WebhookURL,
		secret: cfg.Secret,
		http:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c.url != ""
}

// Push sends one row; any non-2xx answer is an error
func (c *Client) Push(ctx context.Context, row models.BookingSheetRow) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(row)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build sheets request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Webhook-Secret", c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "push booking %d to sheet", row.BookingID)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheets webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
