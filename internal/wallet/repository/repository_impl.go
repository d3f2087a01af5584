package repository

import (
	"context"
	"time"

	"github.com/almubaDev/apiTN/internal/wallet/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, wallet *domain.Wallet) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO wallets (id, user_id, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		wallet.ID,
		wallet.UserID,
		wallet.Balance,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.Wallet, error) {
	var item domain.Wallet
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, balance, created_at, updated_at
		 FROM wallets
		 WHERE user_id = ?
		 LIMIT 1`,
		userID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) DebitGuarded(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE wallets
		 SET balance = balance - ?, updated_at = ?
		 WHERE user_id = ? AND balance >= ?`,
		amount,
		now,
		userID,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) AddBalance(ctx context.Context, db *gorm.DB, userID string, amount int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE wallets
		 SET balance = balance + ?, updated_at = ?
		 WHERE user_id = ?`,
		amount,
		now,
		userID,
	).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, trx *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_transactions (id, user_id, kind, amount, description, package_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trx.ID,
		trx.UserID,
		trx.Kind,
		trx.Amount,
		trx.Description,
		trx.PackageID,
		trx.CreatedAt,
	).Error
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, kind, amount, description, package_id, created_at
		 FROM credit_transactions
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
