package repository

import (
	"context"
	"strings"

	"github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListMethods(ctx context.Context, db *gorm.DB) ([]domain.PaymentMethod, error) {
	var items []domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, description, icon, button_color, supported_countries,
			status_url, push_capable, active, sort_order, created_at
		 FROM payment_methods
		 WHERE active = TRUE
		 ORDER BY sort_order, name`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPackages(ctx context.Context, db *gorm.DB) ([]domain.CreditPackage, error) {
	var items []domain.CreditPackage
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, credits, price_cents, previous_price_cents,
			currency, featured, active, created_at
		 FROM credit_packages
		 WHERE active = TRUE
		 ORDER BY price_cents`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindPackage does not filter on active: settlement of an already paid
// intent must still resolve a package that was retired after purchase.
// Callers that sell packages check Active themselves.
func (r *repo) FindPackage(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CreditPackage, error) {
	var item domain.CreditPackage
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, credits, price_cents, previous_price_cents,
			currency, featured, active, created_at
		 FROM credit_packages
		 WHERE id = ?
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

func (r *repo) FindMethodByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PaymentMethod, error) {
	var item domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, code, description, icon, button_color, supported_countries,
			status_url, push_capable, active, sort_order, created_at
		 FROM payment_methods
		 WHERE code = ? AND active = TRUE
		 LIMIT 1`,
		strings.ToLower(strings.TrimSpace(code)),
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListButtonsByPackage(ctx context.Context, db *gorm.DB, packageID snowflake.ID) ([]domain.PaymentButton, error) {
	var items []domain.PaymentButton
	err := db.WithContext(ctx).Raw(
		`SELECT id, package_id, method_id, base_url, extra_params, active, created_at
		 FROM payment_buttons
		 WHERE package_id = ? AND active = TRUE`,
		packageID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindButton(ctx context.Context, db *gorm.DB, packageID, methodID snowflake.ID) (*domain.PaymentButton, error) {
	var item domain.PaymentButton
	err := db.WithContext(ctx).Raw(
		`SELECT id, package_id, method_id, base_url, extra_params, active, created_at
		 FROM payment_buttons
		 WHERE package_id = ? AND method_id = ? AND active = TRUE
		 LIMIT 1`,
		packageID,
		methodID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}
