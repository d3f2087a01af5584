// Package domain contains reference data for payment methods, credit
// packages and their payment buttons. Rows are seeded and read-only
// through the API.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CountryGlobal marks a payment method as available everywhere.
const CountryGlobal = "GLOBAL"

// PaymentMethod is a payment platform the shop can redirect users to.
type PaymentMethod struct {
	ID                 snowflake.ID   `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:text;not null;unique"`
	Code               string         `json:"code" gorm:"type:text;not null;unique"`
	Description        string         `json:"description" gorm:"type:text;not null"`
	Icon               string         `json:"icon" gorm:"type:text;not null"`
	ButtonColor        string         `json:"button_color" gorm:"type:text;not null"`
	SupportedCountries datatypes.JSON `json:"supported_countries" gorm:"type:jsonb;not null"`
	// StatusURL is the platform's status-check endpoint for poll-driven
	// reconciliation. Empty means the platform only confirms via push.
	StatusURL   string    `json:"-" gorm:"type:text;not null"`
	PushCapable bool      `json:"-" gorm:"not null;default:true"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

// SupportsCountry reports whether the method can be offered in the given
// country. The GLOBAL wildcard matches everything.
func (m PaymentMethod) SupportsCountry(countryCode string) bool {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	var countries []string
	if err := json.Unmarshal(m.SupportedCountries, &countries); err != nil {
		return false
	}
	for _, c := range countries {
		if c == CountryGlobal || strings.EqualFold(c, countryCode) {
			return true
		}
	}
	return false
}

// CreditPackage defines how many credits a purchase grants and its price.
type CreditPackage struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	Code               string       `json:"code" gorm:"type:text;not null;unique"`
	Name               string       `json:"name" gorm:"type:text;not null"`
	Description        string       `json:"description" gorm:"type:text;not null"`
	Credits            int64        `json:"credits" gorm:"not null"`
	PriceCents         int64        `json:"price_cents" gorm:"not null"`
	PreviousPriceCents *int64       `json:"previous_price_cents,omitempty" gorm:""`
	Currency           string       `json:"currency" gorm:"type:text;not null"`
	Featured           bool         `json:"featured" gorm:"not null;default:false"`
	Active             bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CreditPackage) TableName() string { return "credit_packages" }

func (p CreditPackage) HasDiscount() bool {
	return p.PreviousPriceCents != nil && *p.PreviousPriceCents > p.PriceCents
}

// DiscountPercent returns the rounded discount against the previous price.
func (p CreditPackage) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	prev := float64(*p.PreviousPriceCents)
	return int((prev - float64(p.PriceCents)) / prev * 100.0)
}

// PricePerCredit returns the unit price in major currency units.
func (p CreditPackage) PricePerCredit() float64 {
	if p.Credits == 0 {
		return 0
	}
	return float64(p.PriceCents) / 100.0 / float64(p.Credits)
}

// PaymentButton binds a package to a method with platform-specific
// redirect parameters.
type PaymentButton struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	PackageID   snowflake.ID      `json:"package_id" gorm:"not null;index"`
	MethodID    snowflake.ID      `json:"method_id" gorm:"not null;index"`
	BaseURL     string            `json:"base_url" gorm:"type:text;not null"`
	ExtraParams datatypes.JSONMap `json:"extra_params" gorm:"type:jsonb"`
	Active      bool              `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Method PaymentMethod `json:"method" gorm:"-"`
}

func (PaymentButton) TableName() string { return "payment_buttons" }

// PackageWithButtons is a package plus the buttons usable in a country.
type PackageWithButtons struct {
	Package CreditPackage   `json:"paquete"`
	Buttons []PaymentButton `json:"botones_disponibles"`
}
