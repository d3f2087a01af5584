package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	catalogrepo "github.com/almubaDev/apiTN/internal/catalog/repository"
	catalogservice "github.com/almubaDev/apiTN/internal/catalog/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_catalog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE payment_methods (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			code TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			button_color TEXT NOT NULL DEFAULT '',
			supported_countries TEXT NOT NULL DEFAULT '[]',
			status_url TEXT NOT NULL DEFAULT '',
			push_capable BOOLEAN NOT NULL DEFAULT TRUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE credit_packages (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			credits BIGINT NOT NULL,
			price_cents BIGINT NOT NULL,
			previous_price_cents BIGINT,
			currency TEXT NOT NULL DEFAULT 'USD',
			featured BOOLEAN NOT NULL DEFAULT FALSE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE payment_buttons (
			id BIGINT PRIMARY KEY,
			package_id BIGINT NOT NULL,
			method_id BIGINT NOT NULL,
			base_url TEXT NOT NULL,
			extra_params TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(15)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return conn, node
}

func newCatalogService(conn *gorm.DB) catalogdomain.Service {
	return catalogservice.NewService(catalogservice.Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: catalogrepo.Provide(),
	})
}

func TestListMethodsFiltersByCountry(t *testing.T) {
	ctx := context.Background()
	conn, node := setupTestDB(t)
	svc := newCatalogService(conn)
	now := time.Now().UTC()

	insert := `INSERT INTO payment_methods (id, name, code, supported_countries, active, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`
	if err := conn.Exec(insert, node.Generate(), "PayPal", "paypal", `["GLOBAL"]`, true, 1, now).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := conn.Exec(insert, node.Generate(), "Banco Chile", "banco-chile", `["CL"]`, true, 2, now).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := conn.Exec(insert, node.Generate(), "Apagado", "apagado", `["GLOBAL"]`, false, 3, now).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	cl, err := svc.ListMethods(ctx, "CL")
	if err != nil {
		t.Fatalf("list CL: %v", err)
	}
	if len(cl) != 2 {
		t.Fatalf("CL methods = %d, want 2", len(cl))
	}

	us, err := svc.ListMethods(ctx, "US")
	if err != nil {
		t.Fatalf("list US: %v", err)
	}
	if len(us) != 1 || us[0].Code != "paypal" {
		t.Fatalf("US methods = %+v", us)
	}
}

func TestListPackagesOmitsButtonless(t *testing.T) {
	ctx := context.Background()
	conn, node := setupTestDB(t)
	svc := newCatalogService(conn)
	now := time.Now().UTC()

	methodID := node.Generate()
	if err := conn.Exec(
		`INSERT INTO payment_methods (id, name, code, supported_countries, active, sort_order, created_at)
		 VALUES (?, 'PayPal', 'paypal', '["GLOBAL"]', TRUE, 1, ?)`,
		methodID, now,
	).Error; err != nil {
		t.Fatalf("seed method: %v", err)
	}

	withButton := node.Generate()
	withoutButton := node.Generate()
	insertPkg := `INSERT INTO credit_packages (id, code, name, credits, price_cents, currency, active, created_at)
		 VALUES (?, ?, ?, ?, ?, 'USD', TRUE, ?)`
	if err := conn.Exec(insertPkg, withButton, "pack-50", "Pack 50", 50, 499, now).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	if err := conn.Exec(insertPkg, withoutButton, "pack-10", "Pack 10", 10, 199, now).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	if err := conn.Exec(
		`INSERT INTO payment_buttons (id, package_id, method_id, base_url, extra_params, active, created_at)
		 VALUES (?, ?, ?, 'https://paypal.example', '{}', TRUE, ?)`,
		node.Generate(), withButton, methodID, now,
	).Error; err != nil {
		t.Fatalf("seed button: %v", err)
	}

	packages, err := svc.ListPackages(ctx, "CL")
	if err != nil {
		t.Fatalf("list packages: %v", err)
	}
	if len(packages) != 1 {
		t.Fatalf("packages = %d, want 1 (buttonless omitted)", len(packages))
	}
	if packages[0].Package.Code != "pack-50" {
		t.Fatalf("package = %s", packages[0].Package.Code)
	}
	if len(packages[0].Buttons) != 1 {
		t.Fatalf("buttons = %d", len(packages[0].Buttons))
	}
	if packages[0].Buttons[0].Method.Code != "paypal" {
		t.Fatalf("button method not hydrated: %+v", packages[0].Buttons[0])
	}
}

func TestPackageDiscountMath(t *testing.T) {
	prev := int64(1499)
	pkg := catalogdomain.CreditPackage{
		Credits:            100,
		PriceCents:         999,
		PreviousPriceCents: &prev,
	}

	if !pkg.HasDiscount() {
		t.Fatal("discount not detected")
	}
	if got := pkg.DiscountPercent(); got != 33 {
		t.Fatalf("discount = %d%%, want 33", got)
	}
	if got := pkg.PricePerCredit(); got < 0.0998 || got > 0.1 {
		t.Fatalf("price per credit = %v", got)
	}
}
