package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/almubaDev/apiTN/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const intentColumns = `id, user_id, package_id, method_code, amount_cents,
	status, external_reference, metadata, completed_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, intent *domain.PaymentIntent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_intents (id, user_id, package_id, method_code, amount_cents,
			status, external_reference, metadata, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		intent.ID,
		intent.UserID,
		intent.PackageID,
		intent.MethodCode,
		intent.AmountCents,
		intent.Status,
		intent.ExternalReference,
		intent.Metadata,
		intent.CompletedAt,
		intent.CreatedAt,
		intent.UpdatedAt,
	).Error
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentIntent, error) {
	return r.findByReference(ctx, db, reference, "")
}

func (r *repo) FindByReferenceForUpdate(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentIntent, error) {
	lock := " FOR UPDATE"
	if db.Dialector.Name() == "sqlite" {
		lock = ""
	}
	return r.findByReference(ctx, db, reference, lock)
}

func (r *repo) findByReference(ctx context.Context, db *gorm.DB, reference, lock string) (*domain.PaymentIntent, error) {
	var item domain.PaymentIntent
	err := db.WithContext(ctx).Raw(
		`SELECT `+intentColumns+`
		 FROM payment_intents
		 WHERE external_reference = ?
		 LIMIT 1`+lock,
		reference,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, completedAt time.Time, metadata map[string]any) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE payment_intents
		 SET status = ?, metadata = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		domain.IntentStatusCompleted,
		string(raw),
		completedAt,
		completedAt,
		id,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, metadata map[string]any, now time.Time) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE payment_intents
		 SET status = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		domain.IntentStatusFailed,
		string(raw),
		now,
		id,
	).Error
}
