// Package domain contains payment intents and the reconciliation types
// that settle them against external platforms.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusCompleted IntentStatus = "completed"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusRefunded  IntentStatus = "refunded"
)

// Terminal reports whether the status can never change again.
func (s IntentStatus) Terminal() bool {
	return s == IntentStatusCompleted || s == IntentStatusFailed || s == IntentStatusRefunded
}

// Spanish redirects the stored status to the original API vocabulary.
func (s IntentStatus) Spanish() string {
	switch s {
	case IntentStatusCompleted:
		return "completado"
	case IntentStatusFailed, IntentStatusRefunded:
		return "fallido"
	default:
		return "pendiente"
	}
}

// PaymentIntent is the pending purchase created before redirecting the
// user to the platform. ExternalReference is the only key platforms echo
// back, so it is unique and never reused.
type PaymentIntent struct {
	ID                snowflake.ID      `json:"id" gorm:"primaryKey"`
	UserID            string            `json:"user_id" gorm:"type:text;not null;index"`
	PackageID         snowflake.ID      `json:"package_id" gorm:"not null"`
	MethodCode        string            `json:"metodo_pago" gorm:"type:text;not null"`
	AmountCents       int64             `json:"monto" gorm:"column:amount_cents;not null"`
	Status            IntentStatus      `json:"estado" gorm:"type:text;not null"`
	ExternalReference string            `json:"referencia" gorm:"type:text;not null;uniqueIndex"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CompletedAt       *time.Time        `json:"fecha_pago,omitempty"`
	CreatedAt         time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }

// RedirectPayload tells the client how to send the user to the platform.
// Building it never mutates anything; abandoning the redirect leaves only
// a pending intent behind.
type RedirectPayload struct {
	Reference    string            `json:"referencia"`
	MethodCode   string            `json:"metodo_pago"`
	URL          string            `json:"url"`
	HTTPMethod   string            `json:"http_method"`
	Fields       map[string]string `json:"fields,omitempty"`
	Instructions string            `json:"instrucciones,omitempty"`
}

// WebhookEvent is the platform push notification after adapter parsing.
type WebhookEvent struct {
	Reference string
	// Status is the platform verdict: "completed", "failed" or anything
	// else, which is treated as not-yet-final.
	Status string
	PaidAt *time.Time
	// PayerEmail, when the platform sends one, addresses the receipt.
	PayerEmail string
	Raw        map[string]any
}

// ConfirmOutcome is the stable reconciliation response. Completed
// outcomes carry the credit figures; pending and failed ones do not.
type ConfirmOutcome struct {
	Success      bool       `json:"success"`
	Status       string     `json:"estado"`
	CreditsAdded int64      `json:"creditos_agregados,omitempty"`
	CreditsTotal int64      `json:"creditos_totales,omitempty"`
	AmountCents  int64      `json:"monto,omitempty"`
	PaidAt       *time.Time `json:"fecha_pago,omitempty"`
}

// PlatformStatus is the answer from a platform's status-check endpoint.
type PlatformStatus struct {
	Status string
	PaidAt *time.Time
}
