package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	billingrepo "github.com/almubaDev/apiTN/internal/billing/repository"
	billingservice "github.com/almubaDev/apiTN/internal/billing/service"
	catalogrepo "github.com/almubaDev/apiTN/internal/catalog/repository"
	catalogservice "github.com/almubaDev/apiTN/internal/catalog/service"
	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/config"
	"github.com/almubaDev/apiTN/internal/observability/metrics"
	"github.com/almubaDev/apiTN/internal/payment/adapter"
	paymentrepo "github.com/almubaDev/apiTN/internal/payment/repository"
	paymentservice "github.com/almubaDev/apiTN/internal/payment/service"
	"github.com/almubaDev/apiTN/internal/providers/email"
	"github.com/almubaDev/apiTN/internal/server"
	subrepo "github.com/almubaDev/apiTN/internal/subscription/repository"
	subservice "github.com/almubaDev/apiTN/internal/subscription/service"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	walletrepo "github.com/almubaDev/apiTN/internal/wallet/repository"
	walletservice "github.com/almubaDev/apiTN/internal/wallet/service"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_server_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE wallets (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE credit_transactions (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			amount BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			package_id BIGINT,
			created_at DATETIME NOT NULL
		)`,
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
			created_at DATETIME NOT NULL,
			UNIQUE(package_id, method_id)
		)`,
		`CREATE TABLE payment_intents (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			package_id BIGINT NOT NULL,
			method_code TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			external_reference TEXT NOT NULL UNIQUE,
			metadata TEXT NOT NULL DEFAULT '{}',
			completed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscription_plans (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			monthly_price_cents BIGINT NOT NULL,
			allowance INTEGER NOT NULL DEFAULT 30,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscriptions (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			plan_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			allowance_used INTEGER NOT NULL DEFAULT 0,
			auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscription_payments (
			id BIGINT PRIMARY KEY,
			subscription_id BIGINT NOT NULL,
			amount_cents BIGINT NOT NULL,
			status TEXT NOT NULL,
			method_code TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE usage_records (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			action_name TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL DEFAULT '',
			cost BIGINT NOT NULL DEFAULT 0,
			covered_by_subscription BOOLEAN NOT NULL DEFAULT FALSE,
			result TEXT,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

type silentMailer struct{}

func (silentMailer) Send(context.Context, email.Message) error { return nil }

type fixture struct {
	conn      *gorm.DB
	node      *snowflake.Node
	engine    *gin.Engine
	wallets   walletdomain.Service
	packageID snowflake.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := setupTestDB(t)
	node, err := snowflake.NewNode(17)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{WebhookReturnURL: "https://shop.example"}

	f := &fixture{conn: conn, node: node, packageID: node.Generate()}

	methodID := node.Generate()
	now := time.Now().UTC()
	seed := []struct {
		stmt string
		args []any
	}{
		{
			`INSERT INTO payment_methods (id, name, code, supported_countries, status_url, push_capable, active, sort_order, created_at)
			 VALUES (?, 'PayPal', 'paypal', '["GLOBAL"]', '', TRUE, TRUE, 1, ?)`,
			[]any{methodID, now},
		},
		{
			`INSERT INTO credit_packages (id, code, name, credits, price_cents, currency, active, created_at)
			 VALUES (?, 'pack-100', 'Pack 100', 100, 999, 'USD', TRUE, ?)`,
			[]any{f.packageID, now},
		},
		{
			`INSERT INTO payment_buttons (id, package_id, method_id, base_url, extra_params, active, created_at)
			 VALUES (?, ?, ?, 'https://www.paypal.com/cgi-bin/webscr', '{"business":"shop@example.com"}', TRUE, ?)`,
			[]any{node.Generate(), f.packageID, methodID, now},
		},
	}
	for _, s := range seed {
		if err := conn.Exec(s.stmt, s.args...).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	wallets := walletservice.NewService(walletservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  walletrepo.Provide(),
	})
	catalog := catalogservice.NewService(catalogservice.Params{
		DB:   conn,
		Log:  zap.NewNop(),
		Repo: catalogrepo.Provide(),
	})
	subs := subservice.NewService(subservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  subrepo.Provide(),
	})
	m := metrics.New()
	billing := billingservice.NewService(billingservice.Params{
		DB:            conn,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fake,
		Metrics:       m,
		Repo:          billingrepo.Provide(),
		Wallets:       wallets,
		Subscriptions: subs,
	})
	adapters := adapter.NewRegistry(cfg)
	intents := paymentservice.NewService(paymentservice.Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     paymentrepo.Provide(),
		Catalog:  catalog,
		Adapters: adapters,
	})
	reconcile := paymentservice.NewReconciler(paymentservice.ReconcilerParams{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Metrics: m,
		Repo:    paymentrepo.Provide(),
		Catalog: catalog,
		Wallets: wallets,
		Status:  nil,
		Mail:    silentMailer{},
	})

	engine := server.NewEngine(m)
	server.NewServer(server.ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		DB:              conn,
		Log:             zap.NewNop(),
		GenID:           node,
		CatalogSvc:      catalog,
		WalletSvc:       wallets,
		SubscriptionSvc: subs,
		BillingSvc:      billing,
		IntentSvc:       intents,
		ReconcileSvc:    reconcile,
		Adapters:        adapters,
	})

	f.engine = engine
	f.wallets = wallets
	return f
}

func (f *fixture) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(server.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestHealth(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWalletRequiresUser(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/wallet", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetWalletGrantsWelcome(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/api/wallet", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	payload := decode(t, rec)
	if got := payload["creditos_disponibles"]; got != float64(walletdomain.WelcomeCredits) {
		t.Fatalf("creditos_disponibles = %v", got)
	}
}

func TestCreateIntentAndPollStatus(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/billing/intents", "user-1", gin.H{
		"package_id":  f.packageID.Int64(),
		"metodo_pago": "paypal",
		"pais":        "CL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)
	reference, _ := created["referencia"].(string)
	if reference == "" {
		t.Fatalf("missing referencia: %v", created)
	}

	poll := f.do(t, http.MethodGet, "/api/payments/status?reference="+reference, "", nil)
	if poll.Code != http.StatusOK {
		t.Fatalf("poll status = %d, body = %s", poll.Code, poll.Body.String())
	}
	outcome := decode(t, poll)
	if outcome["success"] != false || outcome["estado"] != "pendiente" {
		t.Fatalf("outcome = %v", outcome)
	}
}

func TestWebhookSettlesIntent(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/billing/intents", "user-1", gin.H{
		"package_id":  f.packageID.Int64(),
		"metodo_pago": "paypal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("intent status = %d, body = %s", rec.Code, rec.Body.String())
	}
	reference, _ := decode(t, rec)["referencia"].(string)

	form := "payment_status=Completed&custom=" + reference
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/paypal", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hook := httptest.NewRecorder()
	f.engine.ServeHTTP(hook, req)

	if hook.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, body = %s", hook.Code, hook.Body.String())
	}
	payload := decode(t, hook)
	if payload["received"] != true || payload["estado"] != "completado" {
		t.Fatalf("webhook payload = %v", payload)
	}

	wallet := decode(t, f.do(t, http.MethodGet, "/api/wallet", "user-1", nil))
	if got := wallet["creditos_disponibles"]; got != float64(walletdomain.WelcomeCredits+100) {
		t.Fatalf("creditos_disponibles = %v", got)
	}
}

func TestWebhookUnknownReferenceStill200(t *testing.T) {
	f := setup(t)

	form := "payment_status=Completed&custom=01HZZZZZZZZZZZZZZZZZZZZZZZ"
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/paypal", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	payload := decode(t, rec)
	if payload["received"] != true {
		t.Fatalf("payload = %v", payload)
	}
	if _, settled := payload["estado"]; settled {
		t.Fatalf("rejected webhook leaked an estado: %v", payload)
	}
}

func TestWebhookMalformedBodyIs400(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/paypal", strings.NewReader("payment_status=Completed"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChargeDebitsCredits(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.wallets.GetOrCreate(ctx, "user-1"); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	err := db.RunInTx(ctx, f.conn, func(tx *gorm.DB) error {
		_, err := f.wallets.Credit(ctx, tx, "user-1", 95, walletdomain.TransactionKindPurchase, "Compra de créditos", nil)
		return err
	})
	if err != nil {
		t.Fatalf("top up: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/billing/charge", "user-1", gin.H{
		"accion":   "tirada",
		"pregunta": "¿qué me depara el futuro?",
		"costo":    10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := decode(t, rec)
	if result["uso_suscripcion"] != false {
		t.Fatalf("uso_suscripcion = %v", result["uso_suscripcion"])
	}
	if result["costo_final"] != float64(10) {
		t.Fatalf("costo_final = %v", result["costo_final"])
	}
	if result["creditos_restantes"] != float64(90) {
		t.Fatalf("creditos_restantes = %v", result["creditos_restantes"])
	}
}

func TestChargeInsufficientIs402(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/api/billing/charge", "user-2", gin.H{
		"accion": "tirada",
		"costo":  50,
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
