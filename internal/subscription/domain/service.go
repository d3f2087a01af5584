package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrAlreadySubscribed    = errors.New("already_subscribed")
	ErrNoActiveSubscription = errors.New("no_active_subscription")
	ErrPlanNotFound         = errors.New("plan_not_found")
	ErrRenewNotAllowed      = errors.New("renew_not_allowed")
)

type Service interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	// GetActive returns the newest subscription whose status is active and
	// whose window contains now, or nil when none exists.
	GetActive(ctx context.Context, userID string) (*Subscription, error)
	// ConsumeAllowance burns one allowance unit inside the caller's
	// transaction. It returns false without mutating when none remain.
	ConsumeAllowance(ctx context.Context, tx *gorm.DB, sub *Subscription) (bool, error)
	Subscribe(ctx context.Context, userID string, planID snowflake.ID, methodCode string) (Subscription, error)
	Cancel(ctx context.Context, userID string) error
	Renew(ctx context.Context, subID snowflake.ID) error
}

type Repository interface {
	ListPlans(ctx context.Context, db *gorm.DB) ([]Plan, error)
	FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Plan, error)
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	// FindActiveByUser returns active-status rows newest first; callers
	// apply the window check.
	FindActiveByUser(ctx context.Context, db *gorm.DB, userID string) ([]Subscription, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// ConsumeAllowanceGuarded increments allowance_used only while below
	// the plan allowance, reporting whether a row changed.
	ConsumeAllowanceGuarded(ctx context.Context, db *gorm.DB, id snowflake.ID, allowance int, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status SubscriptionStatus, autoRenew bool, now time.Time) error
	ResetWindow(ctx context.Context, db *gorm.DB, id snowflake.ID, start, end, now time.Time) error
	ExpireLapsed(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	ListRenewable(ctx context.Context, db *gorm.DB, now time.Time) ([]Subscription, error)
}
