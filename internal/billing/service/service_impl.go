package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	billingdomain "github.com/almubaDev/apiTN/internal/billing/domain"
	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/observability/metrics"
	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Metrics       *metrics.Metrics
	Repo          billingdomain.Repository
	Wallets       walletdomain.Service
	Subscriptions subdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	metrics       *metrics.Metrics
	repo          billingdomain.Repository
	wallets       walletdomain.Service
	subscriptions subdomain.Service
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("billing.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		metrics:       p.Metrics,
		repo:          p.Repo,
		wallets:       p.Wallets,
		subscriptions: p.Subscriptions,
	}
}

// ChargeForAction settles one action in a single transaction. A live
// subscription allowance is always tried first; only when no unit could
// be consumed does the wallet get debited. Either way a usage record is
// written, so history stays complete.
func (s *Service) ChargeForAction(ctx context.Context, req billingdomain.ChargeRequest) (billingdomain.ChargeResult, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return billingdomain.ChargeResult{}, walletdomain.ErrInvalidUser
	}
	if req.Cost <= 0 || req.ActionName == "" {
		return billingdomain.ChargeResult{}, billingdomain.ErrInvalidCharge
	}

	// Ensures the wallet row exists before the charge transaction and
	// gives us the balance for allowance-covered responses.
	wallet, err := s.wallets.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return billingdomain.ChargeResult{}, err
	}
	sub, err := s.subscriptions.GetActive(ctx, req.UserID)
	if err != nil {
		return billingdomain.ChargeResult{}, err
	}

	result := billingdomain.ChargeResult{CreditsRemaining: wallet.Balance}
	err = db.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		covered := false
		if sub != nil {
			// The guarded UPDATE decides; a racing consumer taking the
			// last unit just drops us through to credits.
			covered, err = s.subscriptions.ConsumeAllowance(ctx, tx, sub)
			if err != nil {
				return err
			}
		}

		finalCost := req.Cost
		if covered {
			finalCost = 0
		} else {
			balance, err := s.wallets.Debit(ctx, tx, req.UserID, req.Cost,
				fmt.Sprintf("Uso: %s", req.ActionName))
			if err != nil {
				if errors.Is(err, walletdomain.ErrInsufficientBalance) {
					return billingdomain.ErrInsufficientFunds
				}
				return err
			}
			result.CreditsRemaining = balance
		}

		result.CoveredBySubscription = covered
		result.FinalCost = finalCost
		return s.repo.InsertUsage(ctx, tx, &billingdomain.UsageRecord{
			ID:                    s.genID.Generate(),
			UserID:                req.UserID,
			ActionName:            req.ActionName,
			Question:              req.Question,
			Cost:                  finalCost,
			CoveredBySubscription: covered,
			Result:                req.Result,
			CreatedAt:             s.clock.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, billingdomain.ErrInsufficientFunds) {
			s.metrics.ObserveCharge(metrics.ChargeOutcomeInsufficient)
		}
		return billingdomain.ChargeResult{}, err
	}

	if result.CoveredBySubscription {
		s.metrics.ObserveCharge(metrics.ChargeOutcomeAllowance)
	} else {
		s.metrics.ObserveCharge(metrics.ChargeOutcomeCredits)
	}
	result.AllowanceRemaining = s.allowanceRemaining(ctx, req.UserID)

	s.log.Info("action charged",
		zap.String("user_id", req.UserID),
		zap.String("action", req.ActionName),
		zap.Bool("covered_by_subscription", result.CoveredBySubscription),
		zap.Int64("final_cost", result.FinalCost),
	)
	return result, nil
}

func (s *Service) History(ctx context.Context, userID string, limit int) ([]billingdomain.UsageRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListUsage(ctx, s.db, userID, limit)
}

func (s *Service) Stats(ctx context.Context, userID string) (billingdomain.Stats, error) {
	wallet, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return billingdomain.Stats{}, err
	}
	sub, err := s.subscriptions.GetActive(ctx, userID)
	if err != nil {
		return billingdomain.Stats{}, err
	}
	total, err := s.repo.CountActions(ctx, s.db, userID)
	if err != nil {
		return billingdomain.Stats{}, err
	}
	spent, err := s.repo.SumCreditsSpent(ctx, s.db, userID)
	if err != nil {
		return billingdomain.Stats{}, err
	}

	stats := billingdomain.Stats{
		CreditsAvailable: wallet.Balance,
		TotalActions:     total,
		CreditsSpent:     spent,
	}
	if sub != nil {
		stats.SubscriptionActive = true
		stats.AllowanceRemaining = sub.AllowanceRemaining(s.clock.Now())
	}
	return stats, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (billingdomain.Summary, error) {
	wallet, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return billingdomain.Summary{}, err
	}
	sub, err := s.subscriptions.GetActive(ctx, userID)
	if err != nil {
		return billingdomain.Summary{}, err
	}
	transactions, err := s.wallets.Transactions(ctx, userID, 5)
	if err != nil {
		return billingdomain.Summary{}, err
	}
	usage, err := s.repo.ListUsage(ctx, s.db, userID, 5)
	if err != nil {
		return billingdomain.Summary{}, err
	}

	return billingdomain.Summary{
		Wallet:       wallet,
		Subscription: sub,
		Transactions: transactions,
		Usage:        usage,
	}, nil
}

func (s *Service) allowanceRemaining(ctx context.Context, userID string) int {
	sub, err := s.subscriptions.GetActive(ctx, userID)
	if err != nil || sub == nil {
		return 0
	}
	return sub.AllowanceRemaining(s.clock.Now())
}
