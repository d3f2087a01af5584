// Package adapter holds the per-platform redirect builders and webhook
// parsers. Adapters are pure; persistence stays in the services.
package adapter

import (
	"strings"

	"github.com/almubaDev/apiTN/internal/config"
	"github.com/almubaDev/apiTN/internal/payment/domain"
)

// Registry resolves the adapter for a payment method code. Methods
// without a dedicated adapter fall back to the generic URL-template one,
// so adding a seeded method never requires new code.
type Registry struct {
	adapters map[string]domain.Adapter
	fallback domain.Adapter
}

func NewRegistry(cfg config.Config) *Registry {
	r := &Registry{
		adapters: make(map[string]domain.Adapter),
		fallback: NewGeneric(),
	}
	r.register(NewPayPal(cfg.WebhookReturnURL))
	r.register(NewBankTransfer())
	return r
}

func (r *Registry) register(a domain.Adapter) {
	r.adapters[a.Code()] = a
}

func (r *Registry) For(methodCode string) domain.Adapter {
	if a, ok := r.adapters[strings.ToLower(strings.TrimSpace(methodCode))]; ok {
		return a
	}
	return r.fallback
}
