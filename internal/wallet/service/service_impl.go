package service

import (
	"context"
	"strings"
	"time"

	"github.com/almubaDev/apiTN/internal/clock"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  walletdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  walletdomain.Repository
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("wallet.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// GetOrCreate returns the user's wallet, creating it atomically on first
// access. The first creation grants the welcome credits together with the
// matching gift transaction, so replaying bootstrap can never double-grant.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (walletdomain.Wallet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return walletdomain.Wallet{}, walletdomain.ErrInvalidUser
	}

	var out walletdomain.Wallet
	err := db.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		now := s.clock.Now()
		fresh := walletdomain.Wallet{
			ID:        s.genID.Generate(),
			UserID:    userID,
			Balance:   walletdomain.WelcomeCredits,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := s.repo.InsertIfAbsent(ctx, tx, &fresh)
		if err != nil {
			return err
		}
		if inserted {
			if err := s.appendTransaction(ctx, tx, userID, walletdomain.TransactionKindGift,
				walletdomain.WelcomeCredits, "Créditos de bienvenida", nil, now); err != nil {
				return err
			}
			out = fresh
			return nil
		}

		existing, err := s.repo.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return gorm.ErrRecordNotFound
		}
		out = *existing
		return nil
	})
	if err != nil {
		return walletdomain.Wallet{}, err
	}
	return out, nil
}

func (s *Service) HasSufficientBalance(ctx context.Context, userID string, amount int64) (bool, error) {
	if amount < 0 {
		return false, walletdomain.ErrInvalidAmount
	}
	wallet, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}
	return wallet.Balance >= amount, nil
}

// Debit decrements the balance inside the caller's transaction. The guard
// runs in the UPDATE itself, so two racing debits can never both succeed
// on one charge's worth of balance. The usage entry is recorded with a
// negative amount.
func (s *Service) Debit(ctx context.Context, tx *gorm.DB, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, walletdomain.ErrInvalidAmount
	}
	now := s.clock.Now()
	ok, err := s.repo.DebitGuarded(ctx, tx, userID, amount, now)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, walletdomain.ErrInsufficientBalance
	}
	if err := s.appendTransaction(ctx, tx, userID, walletdomain.TransactionKindUsage,
		-amount, description, nil, now); err != nil {
		return 0, err
	}
	return s.balanceIn(ctx, tx, userID)
}

func (s *Service) Credit(ctx context.Context, tx *gorm.DB, userID string, amount int64, kind walletdomain.TransactionKind, description string, packageID *snowflake.ID) (int64, error) {
	if amount <= 0 {
		return 0, walletdomain.ErrInvalidAmount
	}
	now := s.clock.Now()
	if err := s.repo.AddBalance(ctx, tx, userID, amount, now); err != nil {
		return 0, err
	}
	if err := s.appendTransaction(ctx, tx, userID, kind, amount, description, packageID, now); err != nil {
		return 0, err
	}
	return s.balanceIn(ctx, tx, userID)
}

func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]walletdomain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, s.db, userID, limit)
}

func (s *Service) balanceIn(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	wallet, err := s.repo.FindByUser(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if wallet == nil {
		return 0, gorm.ErrRecordNotFound
	}
	return wallet.Balance, nil
}

func (s *Service) appendTransaction(
	ctx context.Context,
	tx *gorm.DB,
	userID string,
	kind walletdomain.TransactionKind,
	amount int64,
	description string,
	packageID *snowflake.ID,
	now time.Time,
) error {
	return s.repo.InsertTransaction(ctx, tx, &walletdomain.Transaction{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		PackageID:   packageID,
		CreatedAt:   now,
	})
}
