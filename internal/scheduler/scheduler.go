// Package scheduler runs the periodic subscription sweep: lapsed windows
// expire and auto-renew subscriptions roll into their next period.
package scheduler

import (
	"context"
	"time"

	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/config"
	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	Repo          subdomain.Repository
	Subscriptions subdomain.Service
}

type Scheduler struct {
	interval      time.Duration
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	repo          subdomain.Repository
	subscriptions subdomain.Service
}

func New(p Params) *Scheduler {
	interval := p.Cfg.SchedulerInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		interval:      interval,
		db:            p.DB,
		log:           p.Log.Named("scheduler"),
		clock:         p.Clock,
		repo:          p.Repo,
		subscriptions: p.Subscriptions,
	}
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass. Renewal failures are logged per subscription
// and never stop the rest of the batch.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.repo.ExpireLapsed(ctx, s.db, now)
	if err != nil {
		s.log.Error("expire sweep failed", zap.Error(err))
	} else if expired > 0 {
		s.log.Info("subscriptions expired", zap.Int64("count", expired))
	}

	renewable, err := s.repo.ListRenewable(ctx, s.db, now)
	if err != nil {
		s.log.Error("renewable listing failed", zap.Error(err))
		return
	}
	for _, sub := range renewable {
		if err := s.subscriptions.Renew(ctx, sub.ID); err != nil {
			s.log.Error("renewal failed",
				zap.Int64("subscription_id", sub.ID.Int64()),
				zap.Error(err),
			)
		}
	}
}
