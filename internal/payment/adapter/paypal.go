package adapter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/payment/domain"
)

// PayPal builds the hosted-button form post and parses IPN-style pushes.
// The intent reference travels in the custom field and comes back in it.
type PayPal struct {
	notifyURL string
}

func NewPayPal(notifyURL string) *PayPal {
	return &PayPal{notifyURL: notifyURL}
}

func (a *PayPal) Code() string { return "paypal" }

func (a *PayPal) BuildRedirect(intent domain.PaymentIntent, pkg catalogdomain.CreditPackage, button catalogdomain.PaymentButton) (domain.RedirectPayload, error) {
	fields := map[string]string{
		"cmd":           "_xclick",
		"item_name":     pkg.Name,
		"item_number":   pkg.Code,
		"amount":        formatCents(intent.AmountCents),
		"currency_code": pkg.Currency,
		"custom":        intent.ExternalReference,
		"no_shipping":   "1",
	}
	if a.notifyURL != "" {
		fields["notify_url"] = a.notifyURL
	}
	for key, value := range button.ExtraParams {
		fields[key] = fmt.Sprint(value)
	}

	return domain.RedirectPayload{
		Reference:  intent.ExternalReference,
		MethodCode: a.Code(),
		URL:        button.BaseURL,
		HTTPMethod: "POST",
		Fields:     fields,
	}, nil
}

// ParseWebhook reads the form-encoded IPN body. payment_status maps onto
// the reconciliation verdict; anything unrecognized stays non-final.
func (a *PayPal) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return domain.WebhookEvent{}, domain.ErrMalformedWebhook
	}
	reference := strings.TrimSpace(values.Get("custom"))
	if reference == "" {
		return domain.WebhookEvent{}, domain.ErrMalformedWebhook
	}

	event := domain.WebhookEvent{
		Reference:  reference,
		PayerEmail: values.Get("payer_email"),
		Raw:        map[string]any{},
	}
	for key := range values {
		event.Raw[key] = values.Get(key)
	}

	switch strings.ToLower(values.Get("payment_status")) {
	case "completed":
		event.Status = "completed"
	case "failed", "denied", "reversed":
		event.Status = "failed"
	}
	if raw := values.Get("payment_date"); raw != "" {
		if paidAt, err := time.Parse(time.RFC3339, raw); err == nil {
			event.PaidAt = &paidAt
		}
	}
	return event, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
