package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/almubaDev/apiTN/internal/clock"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	walletrepo "github.com/almubaDev/apiTN/internal/wallet/repository"
	walletservice "github.com/almubaDev/apiTN/internal/wallet/service"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_wallet_%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", time.Now().UnixNano())
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
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

func newWalletService(t *testing.T, conn *gorm.DB) walletdomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(11)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return walletservice.NewService(walletservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  walletrepo.Provide(),
	})
}

func TestGetOrCreateGrantsWelcomeOnce(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	svc := newWalletService(t, conn)

	wallet, err := svc.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if wallet.Balance != walletdomain.WelcomeCredits {
		t.Fatalf("balance = %d, want %d", wallet.Balance, walletdomain.WelcomeCredits)
	}

	again, err := svc.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if again.ID != wallet.ID || again.Balance != walletdomain.WelcomeCredits {
		t.Fatalf("second call returned a different wallet: %+v", again)
	}

	transactions, err := svc.Transactions(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("gift transactions = %d, want 1", len(transactions))
	}
	if transactions[0].Kind != walletdomain.TransactionKindGift {
		t.Fatalf("kind = %s, want gift", transactions[0].Kind)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	svc := newWalletService(t, conn)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrCreate(ctx, "user-race"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent get or create: %v", err)
	}

	var count int64
	if err := conn.Raw(`SELECT COUNT(1) FROM wallets WHERE user_id = ?`, "user-race").Scan(&count).Error; err != nil {
		t.Fatalf("count wallets: %v", err)
	}
	if count != 1 {
		t.Fatalf("wallet rows = %d, want 1", count)
	}
	if err := conn.Raw(`SELECT COUNT(1) FROM credit_transactions WHERE user_id = ?`, "user-race").Scan(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 1 {
		t.Fatalf("gift transactions = %d, want exactly 1", count)
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	svc := newWalletService(t, conn)

	if _, err := svc.GetOrCreate(ctx, "user-2"); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	err := db.RunInTx(ctx, conn, func(tx *gorm.DB) error {
		_, err := svc.Debit(ctx, tx, "user-2", walletdomain.WelcomeCredits+1, "too much")
		return err
	})
	if !errors.Is(err, walletdomain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	wallet, err := svc.GetOrCreate(ctx, "user-2")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if wallet.Balance != walletdomain.WelcomeCredits {
		t.Fatalf("balance changed on failed debit: %d", wallet.Balance)
	}
}

// Replaying the ledger must reproduce the live balance exactly.
func TestLedgerReplayMatchesBalance(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	svc := newWalletService(t, conn)

	if _, err := svc.GetOrCreate(ctx, "user-3"); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	err := db.RunInTx(ctx, conn, func(tx *gorm.DB) error {
		if _, err := svc.Credit(ctx, tx, "user-3", 50, walletdomain.TransactionKindPurchase, "Compra de créditos", nil); err != nil {
			return err
		}
		if _, err := svc.Debit(ctx, tx, "user-3", 12, "Uso: tirada"); err != nil {
			return err
		}
		_, err := svc.Debit(ctx, tx, "user-3", 3, "Uso: tirada")
		return err
	})
	if err != nil {
		t.Fatalf("mutations: %v", err)
	}

	wallet, err := svc.GetOrCreate(ctx, "user-3")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	var replayed int64
	if err := conn.Raw(`SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE user_id = ?`, "user-3").Scan(&replayed).Error; err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed != wallet.Balance {
		t.Fatalf("replayed %d != balance %d", replayed, wallet.Balance)
	}
	if wallet.Balance != walletdomain.WelcomeCredits+50-12-3 {
		t.Fatalf("balance = %d", wallet.Balance)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	conn := setupTestDB(t)
	svc := newWalletService(t, conn)

	if _, err := svc.GetOrCreate(ctx, "user-4"); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	err := db.RunInTx(ctx, conn, func(tx *gorm.DB) error {
		_, err := svc.Debit(ctx, tx, "user-4", 0, "nothing")
		return err
	})
	if !errors.Is(err, walletdomain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}
