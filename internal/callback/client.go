// Package callback reports final session results to the evaluation backend.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/scamsafe/internal/domain"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 5 * time.Second

// Notifier delivers a final-result report.
type Notifier interface {
	Notify(ctx context.Context, payload domain.CallbackPayload) (Delivery, error)
}

// Delivery describes the backend's answer.
type Delivery struct {
	StatusCode int
	Body       string
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("callback rejected with status %d: %s", e.StatusCode, e.Body)
}

// Client posts reports as JSON with a shared-secret header. Deliveries are
// attempted once.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

var _ Notifier = (*Client)(nil)

// NewClient creates a client. An empty url disables delivery.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a callback URL is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

// Notify sends payload to the configured URL.
func (c *Client) Notify(ctx context.Context, payload domain.CallbackPayload) (Delivery, error) {
	if !c.Enabled() {
		slog.Info("Callback URL not configured, skipping delivery",
			"session_id", payload.SessionID, "turns", payload.TotalMessagesExchanged)
		return Delivery{}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Delivery{}, fmt.Errorf("create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Delivery{}, fmt.Errorf("send callback: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	d := Delivery{StatusCode: resp.StatusCode, Body: string(respBody)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return d, &StatusError{StatusCode: resp.StatusCode, Body: d.Body}
	}
	return d, nil
}
