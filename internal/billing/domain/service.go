package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidCharge     = errors.New("invalid_charge")
)

// Service arbitrates how an action gets paid for. Allowance is always
// preferred over credits; credits are only touched when no allowance
// unit could be consumed.
type Service interface {
	ChargeForAction(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	History(ctx context.Context, userID string, limit int) ([]UsageRecord, error)
	Stats(ctx context.Context, userID string) (Stats, error)
	Summary(ctx context.Context, userID string) (Summary, error)
}

type Repository interface {
	InsertUsage(ctx context.Context, db *gorm.DB, rec *UsageRecord) error
	ListUsage(ctx context.Context, db *gorm.DB, userID string, limit int) ([]UsageRecord, error)
	CountActions(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	// SumCreditsSpent totals credits burned through usage entries,
	// returned as a positive number.
	SumCreditsSpent(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}
