package domain

import (
	"context"
	"errors"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	// ErrUnknownReference means no intent matches; confirmations for it
	// are rejected outright, never auto-created.
	ErrUnknownReference = errors.New("unknown_reference")
	// ErrUnsupportedRegion means the chosen method does not operate in
	// the buyer's country.
	ErrUnsupportedRegion = errors.New("unsupported_region")
	// ErrUnverifiedCompletion means the platform could not authoritatively
	// confirm the payment, so the intent stays pending.
	ErrUnverifiedCompletion = errors.New("unverified_completion")
	ErrMalformedWebhook     = errors.New("malformed_webhook")
)

// IntentService creates pending purchases and hands back the redirect.
type IntentService interface {
	CreateIntent(ctx context.Context, userID string, packageID snowflake.ID, methodCode, countryCode string) (PaymentIntent, RedirectPayload, error)
	GetByReference(ctx context.Context, reference string) (*PaymentIntent, error)
}

// ReconcileService settles intents exactly once. Replays of a settled
// reference return the stored outcome without touching the wallet again.
type ReconcileService interface {
	// ConfirmByReference applies a platform push notification.
	ConfirmByReference(ctx context.Context, event WebhookEvent) (ConfirmOutcome, error)
	// CheckStatus serves client polling. It completes the intent only
	// when the platform's status endpoint says so.
	CheckStatus(ctx context.Context, reference string) (ConfirmOutcome, error)
}

// Adapter shapes one platform's redirect and parses its webhooks.
// Implementations must be pure; side effects belong to the services.
type Adapter interface {
	Code() string
	BuildRedirect(intent PaymentIntent, pkg catalogdomain.CreditPackage, button catalogdomain.PaymentButton) (RedirectPayload, error)
	ParseWebhook(body []byte) (WebhookEvent, error)
}

// StatusClient asks a platform whether a payment went through.
type StatusClient interface {
	Check(ctx context.Context, statusURL, reference string) (PlatformStatus, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, intent *PaymentIntent) error
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*PaymentIntent, error)
	FindByReferenceForUpdate(ctx context.Context, db *gorm.DB, reference string) (*PaymentIntent, error)
	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, completedAt time.Time, metadata map[string]any) error
	MarkFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, metadata map[string]any, now time.Time) error
}
