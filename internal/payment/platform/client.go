// Package platform implements the status-check client used by poll
// driven reconciliation.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/almubaDev/apiTN/internal/config"
	"github.com/almubaDev/apiTN/internal/payment/domain"
	"go.uber.org/zap"
)

type Client struct {
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) domain.StatusClient {
	timeout := cfg.PlatformTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		log:  log.Named("payment.platform"),
	}
}

type statusResponse struct {
	Status string `json:"status"`
	PaidAt string `json:"paid_at"`
}

// Check queries the platform's status endpoint for one reference. Only an
// explicit "completed" counts as authoritative; transport errors and odd
// answers surface as errors so the caller never completes on guesswork.
func (c *Client) Check(ctx context.Context, statusURL, reference string) (domain.PlatformStatus, error) {
	target, err := url.Parse(statusURL)
	if err != nil {
		return domain.PlatformStatus{}, fmt.Errorf("parse status url: %w", err)
	}
	query := target.Query()
	query.Set("reference", reference)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return domain.PlatformStatus{}, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return domain.PlatformStatus{}, fmt.Errorf("platform status check: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		c.log.Warn("platform status check returned non-200",
			zap.String("reference", reference),
			zap.Int("status_code", res.StatusCode),
		)
		return domain.PlatformStatus{}, fmt.Errorf("platform status check: http %d", res.StatusCode)
	}

	var payload statusResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.PlatformStatus{}, fmt.Errorf("decode platform status: %w", err)
	}

	out := domain.PlatformStatus{}
	switch strings.ToLower(payload.Status) {
	case "completed", "approved", "paid":
		out.Status = "completed"
	case "failed", "rejected", "cancelled":
		out.Status = "failed"
	default:
		out.Status = "pending"
	}
	if payload.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, payload.PaidAt); err == nil {
			out.PaidAt = &paidAt
		}
	}
	return out, nil
}
