// Package domain holds the billing arbiter types: charge requests, their
// outcomes and the usage history written for every successful charge.
package domain

import (
	"time"

	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// UsageRecord is written exactly once per successful charge, whether the
// action was covered by a subscription allowance or paid with credits.
type UsageRecord struct {
	ID                    snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID                string         `json:"user_id" gorm:"type:text;not null;index"`
	ActionName            string         `json:"accion" gorm:"column:action_name;type:text;not null"`
	Question              string         `json:"pregunta" gorm:"type:text;not null"`
	Cost                  int64          `json:"costo" gorm:"not null"`
	CoveredBySubscription bool           `json:"uso_suscripcion" gorm:"not null;default:false"`
	Result                datatypes.JSON `json:"resultado,omitempty" gorm:"type:jsonb"`
	CreatedAt             time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UsageRecord) TableName() string { return "usage_records" }

type ChargeRequest struct {
	UserID     string         `json:"-"`
	ActionName string         `json:"accion" binding:"required"`
	Question   string         `json:"pregunta"`
	Cost       int64          `json:"costo" binding:"required"`
	Result     datatypes.JSON `json:"resultado,omitempty"`
}

// ChargeResult keeps the original response field names so existing
// clients keep working.
type ChargeResult struct {
	CoveredBySubscription bool  `json:"uso_suscripcion"`
	FinalCost             int64 `json:"costo_final"`
	CreditsRemaining      int64 `json:"creditos_restantes"`
	AllowanceRemaining    int   `json:"tiradas_restantes_suscripcion"`
}

type Stats struct {
	CreditsAvailable   int64 `json:"creditos_disponibles"`
	SubscriptionActive bool  `json:"suscripcion_activa"`
	AllowanceRemaining int   `json:"tiradas_restantes_suscripcion"`
	TotalActions       int64 `json:"total_acciones"`
	CreditsSpent       int64 `json:"creditos_gastados"`
}

type Summary struct {
	Wallet       walletdomain.Wallet        `json:"billetera"`
	Subscription *subdomain.Subscription    `json:"suscripcion,omitempty"`
	Transactions []walletdomain.Transaction `json:"ultimas_transacciones"`
	Usage        []UsageRecord              `json:"ultimos_usos"`
}
