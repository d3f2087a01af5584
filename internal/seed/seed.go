package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// EnsureCatalog seeds payment methods, credit packages, payment buttons and
// subscription plans so a fresh install can sell credits immediately.
// Inserts are keyed on unique codes, so re-running is a no-op.
func EnsureCatalog(db *gorm.DB) error {
	node, err := snowflake.NewNode(9)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	type method struct {
		name        string
		code        string
		description string
		icon        string
		color       string
		countries   string
		statusURL   string
		push        bool
		order       int
	}
	methods := []method{
		{
			name:        "PayPal",
			code:        "paypal",
			description: "Pago con PayPal",
			icon:        "fab fa-paypal",
			color:       "#003087",
			countries:   `["GLOBAL"]`,
			push:        true,
			order:       1,
		},
		{
			name:        "Transferencia Bancaria",
			code:        "transferencia-bancaria",
			description: "Transferencia o depósito bancario",
			icon:        "fas fa-university",
			color:       "#007cba",
			countries:   `["GLOBAL"]`,
			statusURL:   "https://pagos.example.com/api/status",
			push:        false,
			order:       2,
		},
	}
	for _, m := range methods {
		if err := db.Exec(
			`INSERT INTO payment_methods (id, name, code, description, icon, button_color,
				supported_countries, status_url, push_capable, active, sort_order, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?)
			 ON CONFLICT (code) DO NOTHING`,
			node.Generate(), m.name, m.code, m.description, m.icon, m.color,
			m.countries, m.statusURL, m.push, m.order, now,
		).Error; err != nil {
			return err
		}
	}

	type pkg struct {
		name      string
		credits   int64
		price     int64
		prevPrice *int64
		featured  bool
	}
	prev := int64(1499)
	packages := []pkg{
		{name: "Paquete Inicial", credits: 10, price: 499},
		{name: "Paquete Popular", credits: 30, price: 999, prevPrice: &prev, featured: true},
		{name: "Paquete Premium", credits: 100, price: 2499},
	}
	for _, p := range packages {
		if err := db.Exec(
			`INSERT INTO credit_packages (id, code, name, description, credits, price_cents,
				previous_price_cents, currency, featured, active, created_at)
			 VALUES (?, ?, ?, '', ?, ?, ?, 'USD', ?, TRUE, ?)
			 ON CONFLICT (code) DO NOTHING`,
			node.Generate(), slug.Make(p.name), p.name, p.credits, p.price, p.prevPrice, p.featured, now,
		).Error; err != nil {
			return err
		}
	}

	if err := db.Exec(
		`INSERT INTO subscription_plans (id, name, description, monthly_price_cents, allowance, active, created_at)
		 VALUES (?, 'Mensual', 'Suscripción mensual con tiradas incluidas', 999, 30, TRUE, ?)
		 ON CONFLICT (name) DO NOTHING`,
		node.Generate(), now,
	).Error; err != nil {
		return err
	}

	return seedButtons(db, node, now)
}

// seedButtons links every active package to every active method that does
// not already have a button for it.
func seedButtons(db *gorm.DB, node *snowflake.Node, now time.Time) error {
	var pairs []struct {
		PackageID snowflake.ID `gorm:"column:package_id"`
		MethodID  snowflake.ID `gorm:"column:method_id"`
	}
	err := db.Raw(
		`SELECT p.id AS package_id, m.id AS method_id
		 FROM credit_packages p
		 CROSS JOIN payment_methods m
		 WHERE p.active = TRUE AND m.active = TRUE`,
	).Scan(&pairs).Error
	if err != nil {
		return err
	}

	for _, pair := range pairs {
		if err := db.Exec(
			`INSERT INTO payment_buttons (id, package_id, method_id, base_url, extra_params, active, created_at)
			 VALUES (?, ?, ?, '', '{}', TRUE, ?)
			 ON CONFLICT (package_id, method_id) DO NOTHING`,
			node.Generate(), pair.PackageID, pair.MethodID, now,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
