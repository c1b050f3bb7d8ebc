package storereview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/apprating/internal/domain/providers"
)

const defaultHTTPTimeout = 5 * time.Second

// WebhookProvider forwards review requests to a companion service that owns the
// native store-review integration.
type WebhookProvider struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type reviewRequest struct {
	Event       string    `json:"event"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewWebhookProvider creates a webhook provider. A nil httpClient gets a client with timeout.
func NewWebhookProvider(url string, httpClient *http.Client, timeout time.Duration) providers.StoreReviewProvider {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &WebhookProvider{
		url:        strings.TrimRight(url, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

// IsAvailable asks the companion service whether it can show a review sheet
func (w *WebhookProvider) IsAvailable(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url+"/availability", nil)
	if err != nil {
		return false, fmt.Errorf("failed to build availability request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("availability request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("availability request returned %d", resp.StatusCode)
	}

	var body availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode availability response: %w", err)
	}
	return body.Available, nil
}

// RequestReview posts a review request to the companion service
func (w *WebhookProvider) RequestReview(ctx context.Context) error {
	payload, err := json.Marshal(reviewRequest{Event: "store_review_requested", RequestedAt: w.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode review request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url+"/request", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build review request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("review request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("review request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
