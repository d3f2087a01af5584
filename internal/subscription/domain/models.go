// Package domain contains subscription plans and per-user subscriptions
// with their monthly action allowance.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PeriodDays is the length of one billing window.
const PeriodDays = 30

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
)

// Plan is immutable reference data.
type Plan struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	Name              string       `json:"name" gorm:"type:text;not null;unique"`
	Description       string       `json:"description" gorm:"type:text;not null"`
	MonthlyPriceCents int64        `json:"monthly_price_cents" gorm:"not null"`
	Allowance         int          `json:"allowance" gorm:"not null"`
	Active            bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Plan) TableName() string { return "subscription_plans" }

type Subscription struct {
	ID            snowflake.ID       `json:"id" gorm:"primaryKey"`
	UserID        string             `json:"user_id" gorm:"type:text;not null;index"`
	PlanID        snowflake.ID       `json:"plan_id" gorm:"not null"`
	Status        SubscriptionStatus `json:"estado" gorm:"type:text;not null"`
	StartAt       time.Time          `json:"fecha_inicio" gorm:"not null"`
	EndAt         time.Time          `json:"fecha_fin" gorm:"not null"`
	AllowanceUsed int                `json:"tiradas_usadas" gorm:"not null;default:0"`
	AutoRenew     bool               `json:"auto_renovar" gorm:"not null;default:true"`
	CreatedAt     time.Time          `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time          `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Plan Plan `json:"plan" gorm:"-"`
}

func (Subscription) TableName() string { return "subscriptions" }

// ActiveAt reports whether the subscription covers the given instant.
func (s Subscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionStatusActive &&
		!now.Before(s.StartAt) && !now.After(s.EndAt)
}

// AllowanceRemaining is zero outside the active window, never negative.
func (s Subscription) AllowanceRemaining(now time.Time) int {
	if !s.ActiveAt(now) {
		return 0
	}
	remaining := s.Plan.Allowance - s.AllowanceUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Payment is the audit record written when a subscription is taken out.
// Collection happens out of band; the row exists for history parity.
type Payment struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	SubscriptionID snowflake.ID `json:"subscription_id" gorm:"not null;index"`
	AmountCents    int64        `json:"amount_cents" gorm:"not null"`
	Status         string       `json:"estado" gorm:"type:text;not null"`
	MethodCode     string       `json:"metodo_pago" gorm:"type:text;not null"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "subscription_payments" }
