package repository

import (
	"context"

	"github.com/almubaDev/apiTN/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, rec *domain.UsageRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_records (id, user_id, action_name, question, cost,
			covered_by_subscription, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.ActionName,
		rec.Question,
		rec.Cost,
		rec.CoveredBySubscription,
		rec.Result,
		rec.CreatedAt,
	).Error
}

func (r *repo) ListUsage(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.UsageRecord, error) {
	var items []domain.UsageRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, action_name, question, cost,
			covered_by_subscription, result, created_at
		 FROM usage_records
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountActions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM usage_records WHERE user_id = ?`,
		userID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) SumCreditsSpent(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(-SUM(amount), 0)
		 FROM credit_transactions
		 WHERE user_id = ? AND kind = ?`,
		userID,
		"usage",
	).Scan(&total).Error
	return total, err
}
