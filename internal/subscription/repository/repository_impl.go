package repository

import (
	"context"
	"time"

	"github.com/almubaDev/apiTN/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, user_id, plan_id, status, start_at, end_at,
	allowance_used, auto_renew, created_at, updated_at`

func (r *repo) ListPlans(ctx context.Context, db *gorm.DB) ([]domain.Plan, error) {
	var items []domain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, monthly_price_cents, allowance, active, created_at
		 FROM subscription_plans
		 WHERE active = TRUE
		 ORDER BY monthly_price_cents`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	var item domain.Plan
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, monthly_price_cents, allowance, active, created_at
		 FROM subscription_plans
		 WHERE id = ? AND active = TRUE
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (id, user_id, plan_id, status, start_at, end_at,
			allowance_used, auto_renew, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.UserID,
		sub.PlanID,
		sub.Status,
		sub.StartAt,
		sub.EndAt,
		sub.AllowanceUsed,
		sub.AutoRenew,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_payments (id, subscription_id, amount_cents, status, method_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.SubscriptionID,
		payment.AmountCents,
		payment.Status,
		payment.MethodCode,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindActiveByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE user_id = ? AND status = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
		domain.SubscriptionStatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	return r.findByID(ctx, db, id, "")
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	lock := " FOR UPDATE"
	if db.Dialector.Name() == "sqlite" {
		lock = ""
	}
	return r.findByID(ctx, db, id, lock)
}

func (r *repo) findByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock string) (*domain.Subscription, error) {
	var item domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE id = ?
		 LIMIT 1`+lock,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ConsumeAllowanceGuarded(ctx context.Context, db *gorm.DB, id snowflake.ID, allowance int, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET allowance_used = allowance_used + 1, updated_at = ?
		 WHERE id = ? AND status = ? AND allowance_used < ?`,
		now,
		id,
		domain.SubscriptionStatusActive,
		allowance,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.SubscriptionStatus, autoRenew bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, auto_renew = ?, updated_at = ?
		 WHERE id = ?`,
		status,
		autoRenew,
		now,
		id,
	).Error
}

func (r *repo) ResetWindow(ctx context.Context, db *gorm.DB, id snowflake.ID, start, end, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET start_at = ?, end_at = ?, allowance_used = 0, updated_at = ?
		 WHERE id = ?`,
		start,
		end,
		now,
		id,
	).Error
}

func (r *repo) ExpireLapsed(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND end_at < ? AND auto_renew = FALSE`,
		domain.SubscriptionStatusExpired,
		now,
		domain.SubscriptionStatusActive,
		now,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) ListRenewable(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Subscription, error) {
	var items []domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = ? AND auto_renew = TRUE AND end_at < ?`,
		domain.SubscriptionStatusActive,
		now,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
