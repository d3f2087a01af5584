package service

import (
	"context"
	"time"

	"github.com/almubaDev/apiTN/internal/clock"
	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
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
	Repo  subdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  subdomain.Repository
}

func NewService(p Params) subdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ListPlans(ctx context.Context) ([]subdomain.Plan, error) {
	return s.repo.ListPlans(ctx, s.db)
}

// GetActive returns the newest active-status subscription whose window
// contains now. Stale active rows whose window lapsed are skipped rather
// than mutated here; the scheduler sweep owns status transitions.
func (s *Service) GetActive(ctx context.Context, userID string) (*subdomain.Subscription, error) {
	return s.activeIn(ctx, s.db, userID)
}

func (s *Service) activeIn(ctx context.Context, conn *gorm.DB, userID string) (*subdomain.Subscription, error) {
	subs, err := s.repo.FindActiveByUser(ctx, conn, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for i := range subs {
		if !subs[i].ActiveAt(now) {
			continue
		}
		plan, err := s.repo.FindPlan(ctx, conn, subs[i].PlanID)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			subs[i].Plan = *plan
		}
		return &subs[i], nil
	}
	return nil, nil
}

// ConsumeAllowance burns one allowance unit inside the caller's transaction.
// The guard lives in the UPDATE, so a concurrent consumer racing for the
// last unit loses cleanly and falls through to credits.
func (s *Service) ConsumeAllowance(ctx context.Context, tx *gorm.DB, sub *subdomain.Subscription) (bool, error) {
	if sub == nil || sub.Plan.ID == 0 {
		return false, nil
	}
	return s.repo.ConsumeAllowanceGuarded(ctx, tx, sub.ID, sub.Plan.Allowance, s.clock.Now())
}

// Subscribe creates an immediately active subscription together with its
// payment audit row. A user with a live subscription cannot take a second.
func (s *Service) Subscribe(ctx context.Context, userID string, planID snowflake.ID, methodCode string) (subdomain.Subscription, error) {
	var out subdomain.Subscription
	err := db.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		plan, err := s.repo.FindPlan(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return subdomain.ErrPlanNotFound
		}

		current, err := s.activeIn(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != nil {
			return subdomain.ErrAlreadySubscribed
		}

		now := s.clock.Now()
		out = subdomain.Subscription{
			ID:        s.genID.Generate(),
			UserID:    userID,
			PlanID:    plan.ID,
			Status:    subdomain.SubscriptionStatusActive,
			StartAt:   now,
			EndAt:     now.Add(subdomain.PeriodDays * 24 * time.Hour),
			AutoRenew: true,
			CreatedAt: now,
			UpdatedAt: now,
			Plan:      *plan,
		}
		if err := s.repo.Insert(ctx, tx, &out); err != nil {
			return err
		}
		return s.repo.InsertPayment(ctx, tx, &subdomain.Payment{
			ID:             s.genID.Generate(),
			SubscriptionID: out.ID,
			AmountCents:    plan.MonthlyPriceCents,
			Status:         "completed",
			MethodCode:     methodCode,
			CreatedAt:      now,
		})
	})
	if err != nil {
		return subdomain.Subscription{}, err
	}

	s.log.Info("subscription created",
		zap.String("user_id", userID),
		zap.Int64("subscription_id", out.ID.Int64()),
		zap.Int64("plan_id", planID.Int64()),
	)
	return out, nil
}

// Cancel marks the live subscription cancelled and turns off auto renew.
// The window already granted stays usable until EndAt through GetActive
// callers that hold the row; new lookups exclude cancelled rows.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	return db.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		current, err := s.activeIn(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return subdomain.ErrNoActiveSubscription
		}
		return s.repo.UpdateStatus(ctx, tx, current.ID, subdomain.SubscriptionStatusCancelled, false, s.clock.Now())
	})
}

// Renew advances the billing window by one period and resets the used
// allowance. Only active rows with auto renew on qualify; the scheduler
// calls this for each lapsed renewable subscription.
func (s *Service) Renew(ctx context.Context, subID snowflake.ID) error {
	err := db.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		sub, err := s.repo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub == nil {
			return subdomain.ErrNoActiveSubscription
		}
		if sub.Status != subdomain.SubscriptionStatusActive || !sub.AutoRenew {
			return subdomain.ErrRenewNotAllowed
		}

		plan, err := s.repo.FindPlan(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return subdomain.ErrPlanNotFound
		}

		now := s.clock.Now()
		start := sub.EndAt
		if start.Before(now.Add(-subdomain.PeriodDays * 24 * time.Hour)) {
			// Long-lapsed rows restart from now instead of replaying
			// every missed window.
			start = now
		}
		end := start.Add(subdomain.PeriodDays * 24 * time.Hour)
		if err := s.repo.ResetWindow(ctx, tx, sub.ID, start, end, now); err != nil {
			return err
		}
		return s.repo.InsertPayment(ctx, tx, &subdomain.Payment{
			ID:             s.genID.Generate(),
			SubscriptionID: sub.ID,
			AmountCents:    plan.MonthlyPriceCents,
			Status:         "completed",
			MethodCode:     "renewal",
			CreatedAt:      now,
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("subscription renewed", zap.Int64("subscription_id", subID.Int64()))
	return nil
}
