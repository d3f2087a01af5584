package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrMethodNotFound  = errors.New("payment_method_not_found")
	ErrPackageNotFound = errors.New("credit_package_not_found")
	ErrButtonNotFound  = errors.New("payment_button_not_found")
)

type Service interface {
	ListMethods(ctx context.Context, countryCode string) ([]PaymentMethod, error)
	ListPackages(ctx context.Context, countryCode string) ([]PackageWithButtons, error)
	GetPackage(ctx context.Context, id snowflake.ID) (*CreditPackage, error)
	GetMethodByCode(ctx context.Context, code string) (*PaymentMethod, error)
	GetButton(ctx context.Context, packageID, methodID snowflake.ID) (*PaymentButton, error)
}

type Repository interface {
	ListMethods(ctx context.Context, db *gorm.DB) ([]PaymentMethod, error)
	ListPackages(ctx context.Context, db *gorm.DB) ([]CreditPackage, error)
	FindPackage(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreditPackage, error)
	FindMethodByCode(ctx context.Context, db *gorm.DB, code string) (*PaymentMethod, error)
	ListButtonsByPackage(ctx context.Context, db *gorm.DB, packageID snowflake.ID) ([]PaymentButton, error)
	FindButton(ctx context.Context, db *gorm.DB, packageID, methodID snowflake.ID) (*PaymentButton, error)
}
