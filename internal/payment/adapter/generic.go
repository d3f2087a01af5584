package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/payment/domain"
)

// Generic covers methods without a dedicated adapter: the button's base
// URL gets the reference, amount and extra params appended as a query
// string, and webhooks are expected as flat JSON.
type Generic struct{}

func NewGeneric() *Generic {
	return &Generic{}
}

func (a *Generic) Code() string { return "generic" }

func (a *Generic) BuildRedirect(intent domain.PaymentIntent, pkg catalogdomain.CreditPackage, button catalogdomain.PaymentButton) (domain.RedirectPayload, error) {
	target, err := url.Parse(button.BaseURL)
	if err != nil {
		return domain.RedirectPayload{}, fmt.Errorf("parse button url: %w", err)
	}

	query := target.Query()
	query.Set("reference", intent.ExternalReference)
	query.Set("amount", formatCents(intent.AmountCents))
	query.Set("currency", pkg.Currency)
	for key, value := range button.ExtraParams {
		query.Set(key, fmt.Sprint(value))
	}
	target.RawQuery = query.Encode()

	return domain.RedirectPayload{
		Reference:  intent.ExternalReference,
		MethodCode: intent.MethodCode,
		URL:        target.String(),
		HTTPMethod: "GET",
	}, nil
}

type genericWebhookBody struct {
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	PaidAt     string `json:"paid_at"`
	PayerEmail string `json:"payer_email"`
}

func (a *Generic) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var payload genericWebhookBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.WebhookEvent{}, domain.ErrMalformedWebhook
	}
	reference := strings.TrimSpace(payload.Reference)
	if reference == "" {
		return domain.WebhookEvent{}, domain.ErrMalformedWebhook
	}

	event := domain.WebhookEvent{
		Reference:  reference,
		PayerEmail: payload.PayerEmail,
		Raw: map[string]any{
			"reference": payload.Reference,
			"status":    payload.Status,
		},
	}
	switch strings.ToLower(payload.Status) {
	case "completed", "success", "approved":
		event.Status = "completed"
	case "failed", "rejected", "cancelled":
		event.Status = "failed"
	}
	if payload.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, payload.PaidAt); err == nil {
			event.PaidAt = &paidAt
		}
	}
	return event, nil
}
