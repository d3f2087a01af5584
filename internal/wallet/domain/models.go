// Package domain contains the wallet and its append-only credit ledger.
// Balances are mutated only through guarded debit/credit statements; the
// transaction rows are the audit trail and are never updated or deleted.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// WelcomeCredits is granted once, when a user's wallet is first created.
const WelcomeCredits = 5

type Wallet struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    string       `json:"user_id" gorm:"type:text;not null;uniqueIndex"`
	Balance   int64        `json:"creditos_disponibles" gorm:"not null;default:0"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Wallet) TableName() string { return "wallets" }

type TransactionKind string

const (
	TransactionKindPurchase TransactionKind = "purchase"
	TransactionKindUsage    TransactionKind = "usage"
	TransactionKindGift     TransactionKind = "gift"
	TransactionKindRefund   TransactionKind = "refund"
)

// Transaction is one signed ledger entry. Amount is positive for credits
// entering the wallet (purchase, gift, refund) and negative for usage.
type Transaction struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	UserID      string          `json:"user_id" gorm:"type:text;not null;index"`
	Kind        TransactionKind `json:"tipo" gorm:"type:text;not null"`
	Amount      int64           `json:"cantidad" gorm:"not null"`
	Description string          `json:"descripcion" gorm:"type:text;not null"`
	PackageID   *snowflake.ID   `json:"paquete_id,omitempty" gorm:"column:package_id"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Transaction) TableName() string { return "credit_transactions" }
