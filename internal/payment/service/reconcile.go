package service

import (
	"context"
	"fmt"
	"time"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/observability/metrics"
	paymentdomain "github.com/almubaDev/apiTN/internal/payment/domain"
	"github.com/almubaDev/apiTN/internal/providers/email"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReconcilerParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Repo    paymentdomain.Repository
	Catalog catalogdomain.Service
	Wallets walletdomain.Service
	Status  paymentdomain.StatusClient
	Mail    email.Provider
}

// Reconciler settles payment intents exactly once. All mutations for one
// settlement happen in a single transaction behind a row lock and a
// status guard, so webhook replays and webhook/poll races collapse into
// one credit grant.
type Reconciler struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
	repo    paymentdomain.Repository
	catalog catalogdomain.Service
	wallets walletdomain.Service
	status  paymentdomain.StatusClient
	mail    email.Provider
}

func NewReconciler(p ReconcilerParams) paymentdomain.ReconcileService {
	return &Reconciler{
		db:      p.DB,
		log:     p.Log.Named("payment.reconcile"),
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
		repo:    p.Repo,
		catalog: p.Catalog,
		wallets: p.Wallets,
		status:  p.Status,
		mail:    p.Mail,
	}
}

func (r *Reconciler) ConfirmByReference(ctx context.Context, event paymentdomain.WebhookEvent) (paymentdomain.ConfirmOutcome, error) {
	intent, err := r.lookup(ctx, event.Reference)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	if intent.Status.Terminal() {
		return r.storedOutcome(ctx, intent)
	}

	switch event.Status {
	case "completed":
		return r.complete(ctx, intent, event)
	case "failed":
		return r.fail(ctx, intent, event)
	default:
		// The platform has not finalized; acknowledge without writing.
		return pendingOutcome(), nil
	}
}

func (r *Reconciler) CheckStatus(ctx context.Context, reference string) (paymentdomain.ConfirmOutcome, error) {
	intent, err := r.lookup(ctx, reference)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	if intent.Status.Terminal() {
		return r.storedOutcome(ctx, intent)
	}

	method, err := r.catalog.GetMethodByCode(ctx, intent.MethodCode)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	if method.StatusURL == "" {
		// Push-only platform: polling cannot verify, the webhook will.
		return pendingOutcome(), nil
	}

	verdict, err := r.status.Check(ctx, method.StatusURL, reference)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, fmt.Errorf("%w: %w", paymentdomain.ErrUnverifiedCompletion, err)
	}

	switch verdict.Status {
	case "completed":
		return r.complete(ctx, intent, paymentdomain.WebhookEvent{
			Reference: reference,
			Status:    "completed",
			PaidAt:    verdict.PaidAt,
			Raw:       map[string]any{"source": "status_poll"},
		})
	case "failed":
		return r.fail(ctx, intent, paymentdomain.WebhookEvent{
			Reference: reference,
			Status:    "failed",
			Raw:       map[string]any{"source": "status_poll"},
		})
	default:
		return pendingOutcome(), nil
	}
}

// lookup rejects unknown references loudly. A confirmation for a
// reference this system never issued is either platform misconfiguration
// or someone probing, and it must never create rows.
func (r *Reconciler) lookup(ctx context.Context, reference string) (*paymentdomain.PaymentIntent, error) {
	if reference == "" {
		return nil, paymentdomain.ErrUnknownReference
	}
	intent, err := r.repo.FindByReference(ctx, r.db, reference)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		r.metrics.ObserveUnknownReference()
		r.log.Error("payment confirmation for unknown reference",
			zap.String("reference", reference),
		)
		return nil, paymentdomain.ErrUnknownReference
	}
	return intent, nil
}

func (r *Reconciler) complete(ctx context.Context, intent *paymentdomain.PaymentIntent, event paymentdomain.WebhookEvent) (paymentdomain.ConfirmOutcome, error) {
	pkg, err := r.catalog.GetPackage(ctx, intent.PackageID)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	// Ensure the wallet row exists before the settlement transaction.
	if _, err := r.wallets.GetOrCreate(ctx, intent.UserID); err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}

	paidAt := r.clock.Now()
	if event.PaidAt != nil {
		paidAt = *event.PaidAt
	}

	var (
		newBalance int64
		replayed   *paymentdomain.PaymentIntent
	)
	err = db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		locked, err := r.repo.FindByReferenceForUpdate(ctx, tx, intent.ExternalReference)
		if err != nil {
			return err
		}
		if locked == nil {
			return paymentdomain.ErrUnknownReference
		}
		if locked.Status.Terminal() {
			replayed = locked
			return nil
		}

		metadata := mergeMetadata(locked.Metadata, event)
		if err := r.repo.MarkCompleted(ctx, tx, locked.ID, paidAt, metadata); err != nil {
			return err
		}
		newBalance, err = r.wallets.Credit(ctx, tx, locked.UserID, pkg.Credits,
			walletdomain.TransactionKindPurchase,
			fmt.Sprintf("Compra de créditos: %s", pkg.Name), &pkg.ID)
		return err
	})
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	if replayed != nil {
		return r.storedOutcome(ctx, replayed)
	}

	r.metrics.ObserveCreditsGranted(pkg.Credits)
	r.log.Info("payment completed",
		zap.String("reference", intent.ExternalReference),
		zap.String("user_id", intent.UserID),
		zap.Int64("credits", pkg.Credits),
	)
	r.sendReceipt(intent, event, pkg.Name, pkg.Credits)

	return paymentdomain.ConfirmOutcome{
		Success:      true,
		Status:       paymentdomain.IntentStatusCompleted.Spanish(),
		CreditsAdded: pkg.Credits,
		CreditsTotal: newBalance,
		AmountCents:  intent.AmountCents,
		PaidAt:       &paidAt,
	}, nil
}

func (r *Reconciler) fail(ctx context.Context, intent *paymentdomain.PaymentIntent, event paymentdomain.WebhookEvent) (paymentdomain.ConfirmOutcome, error) {
	var replayed *paymentdomain.PaymentIntent
	err := db.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		locked, err := r.repo.FindByReferenceForUpdate(ctx, tx, intent.ExternalReference)
		if err != nil {
			return err
		}
		if locked == nil {
			return paymentdomain.ErrUnknownReference
		}
		if locked.Status.Terminal() {
			replayed = locked
			return nil
		}
		return r.repo.MarkFailed(ctx, tx, locked.ID, mergeMetadata(locked.Metadata, event), r.clock.Now())
	})
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	if replayed != nil {
		return r.storedOutcome(ctx, replayed)
	}

	r.log.Warn("payment failed",
		zap.String("reference", intent.ExternalReference),
		zap.String("user_id", intent.UserID),
	)
	return paymentdomain.ConfirmOutcome{
		Success: false,
		Status:  paymentdomain.IntentStatusFailed.Spanish(),
	}, nil
}

// storedOutcome rebuilds the response for an already settled intent so
// replays see the same answer the first confirmation produced.
func (r *Reconciler) storedOutcome(ctx context.Context, intent *paymentdomain.PaymentIntent) (paymentdomain.ConfirmOutcome, error) {
	out := paymentdomain.ConfirmOutcome{
		Success: intent.Status == paymentdomain.IntentStatusCompleted,
		Status:  intent.Status.Spanish(),
	}
	if intent.Status != paymentdomain.IntentStatusCompleted {
		return out, nil
	}

	pkg, err := r.catalog.GetPackage(ctx, intent.PackageID)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}
	wallet, err := r.wallets.GetOrCreate(ctx, intent.UserID)
	if err != nil {
		return paymentdomain.ConfirmOutcome{}, err
	}

	out.CreditsAdded = pkg.Credits
	out.CreditsTotal = wallet.Balance
	out.AmountCents = intent.AmountCents
	out.PaidAt = intent.CompletedAt
	return out, nil
}

func (r *Reconciler) sendReceipt(intent *paymentdomain.PaymentIntent, event paymentdomain.WebhookEvent, packageName string, credits int64) {
	to := event.PayerEmail
	if to == "" {
		if v, ok := intent.Metadata["payer_email"].(string); ok {
			to = v
		}
	}
	if to == "" {
		return
	}

	msg := email.Message{
		To:      to,
		Subject: "Confirmación de compra de créditos",
		Body: fmt.Sprintf(
			"Tu pago fue recibido.\n\nPaquete: %s\nCréditos: %d\nReferencia: %s\n",
			packageName, credits, intent.ExternalReference,
		),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := r.mail.Send(ctx, msg); err != nil {
			r.log.Warn("receipt email failed",
				zap.String("reference", intent.ExternalReference),
				zap.Error(err),
			)
		}
	}()
}

func pendingOutcome() paymentdomain.ConfirmOutcome {
	return paymentdomain.ConfirmOutcome{
		Success: false,
		Status:  paymentdomain.IntentStatusPending.Spanish(),
	}
}

func mergeMetadata(current map[string]any, event paymentdomain.WebhookEvent) map[string]any {
	merged := make(map[string]any, len(current)+len(event.Raw)+1)
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range event.Raw {
		merged["platform_"+k] = v
	}
	if event.PayerEmail != "" {
		merged["payer_email"] = event.PayerEmail
	}
	return merged
}
