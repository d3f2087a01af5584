package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidUser         = errors.New("invalid_user")
)

// Service owns the balance invariant: balance never goes negative and is
// only mutated through Debit/Credit. Both write the matching ledger entry
// in the caller's transaction, so balance and history can never diverge.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (Wallet, error)
	HasSufficientBalance(ctx context.Context, userID string, amount int64) (bool, error)
	// Debit burns credits and records a usage entry with a negative amount.
	Debit(ctx context.Context, tx *gorm.DB, userID string, amount int64, description string) (int64, error)
	// Credit grants credits and records an entry of the given kind.
	Credit(ctx context.Context, tx *gorm.DB, userID string, amount int64, kind TransactionKind, description string, packageID *snowflake.ID) (int64, error)
	Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

type Repository interface {
	// InsertIfAbsent creates the wallet row when missing and reports
	// whether it inserted. It must be a single atomic upsert.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, wallet *Wallet) (bool, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID string) (*Wallet, error)
	// DebitGuarded decrements balance only when sufficient funds exist,
	// reporting whether a row changed.
	DebitGuarded(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) (bool, error)
	AddBalance(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) error
	InsertTransaction(ctx context.Context, db *gorm.DB, trx *Transaction) error
	ListTransactions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]Transaction, error)
}
