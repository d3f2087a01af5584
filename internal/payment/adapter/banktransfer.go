package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/payment/domain"
)

// BankTransfer hands the user wiring instructions instead of a platform
// redirect. The back office confirms transfers by pushing a JSON event
// with the intent reference once the money shows up.
type BankTransfer struct{}

func NewBankTransfer() *BankTransfer {
	return &BankTransfer{}
}

func (a *BankTransfer) Code() string { return "transferencia-bancaria" }

func (a *BankTransfer) BuildRedirect(intent domain.PaymentIntent, pkg catalogdomain.CreditPackage, button catalogdomain.PaymentButton) (domain.RedirectPayload, error) {
	account := ""
	if v, ok := button.ExtraParams["account"]; ok {
		account = fmt.Sprint(v)
	}

	instructions := fmt.Sprintf(
		"Transfiere %s %s indicando la referencia %s en el detalle.",
		formatCents(intent.AmountCents), pkg.Currency, intent.ExternalReference,
	)
	if account != "" {
		instructions = fmt.Sprintf("%s Cuenta: %s.", instructions, account)
	}

	return domain.RedirectPayload{
		Reference:    intent.ExternalReference,
		MethodCode:   a.Code(),
		URL:          button.BaseURL,
		HTTPMethod:   "GET",
		Instructions: instructions,
	}, nil
}

type bankWebhookBody struct {
	Reference  string `json:"referencia"`
	Status     string `json:"estado"`
	PaidAt     string `json:"fecha_pago"`
	PayerEmail string `json:"email"`
}

func (a *BankTransfer) ParseWebhook(body []byte) (domain.WebhookEvent, error) {
	var payload bankWebhookBody
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
			"referencia": payload.Reference,
			"estado":     payload.Status,
		},
	}
	switch strings.ToLower(payload.Status) {
	case "completed", "completado":
		event.Status = "completed"
	case "failed", "fallido", "rechazado":
		event.Status = "failed"
	}
	if payload.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, payload.PaidAt); err == nil {
			event.PaidAt = &paidAt
		}
	}
	return event, nil
}
