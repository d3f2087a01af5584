package service

import (
	"context"
	"crypto/rand"
	"strings"

	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/payment/adapter"
	paymentdomain "github.com/almubaDev/apiTN/internal/payment/domain"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     paymentdomain.Repository
	Catalog  catalogdomain.Service
	Adapters *adapter.Registry
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     paymentdomain.Repository
	catalog  catalogdomain.Service
	adapters *adapter.Registry
}

func NewService(p Params) paymentdomain.IntentService {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		catalog:  p.Catalog,
		adapters: p.Adapters,
	}
}

// CreateIntent validates the purchase, persists a pending intent under a
// fresh reference and returns the platform redirect. Nothing else is
// written; an abandoned redirect leaves only the pending row behind.
func (s *Service) CreateIntent(ctx context.Context, userID string, packageID snowflake.ID, methodCode, countryCode string) (paymentdomain.PaymentIntent, paymentdomain.RedirectPayload, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, walletdomain.ErrInvalidUser
	}

	pkg, err := s.catalog.GetPackage(ctx, packageID)
	if err != nil {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, err
	}
	if !pkg.Active {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, catalogdomain.ErrPackageNotFound
	}
	method, err := s.catalog.GetMethodByCode(ctx, methodCode)
	if err != nil {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, err
	}
	if !method.SupportsCountry(countryCode) {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, paymentdomain.ErrUnsupportedRegion
	}
	button, err := s.catalog.GetButton(ctx, pkg.ID, method.ID)
	if err != nil {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, err
	}

	now := s.clock.Now()
	intent := paymentdomain.PaymentIntent{
		ID:                s.genID.Generate(),
		UserID:            userID,
		PackageID:         pkg.ID,
		MethodCode:        method.Code,
		AmountCents:       pkg.PriceCents,
		Status:            paymentdomain.IntentStatusPending,
		ExternalReference: s.newReference(),
		Metadata: datatypes.JSONMap{
			"package_code": pkg.Code,
			"credits":      pkg.Credits,
			"country":      strings.ToUpper(strings.TrimSpace(countryCode)),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	payload, err := s.adapters.For(method.Code).BuildRedirect(intent, *pkg, *button)
	if err != nil {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, err
	}
	if err := s.repo.Insert(ctx, s.db, &intent); err != nil {
		return paymentdomain.PaymentIntent{}, paymentdomain.RedirectPayload{}, err
	}

	s.log.Info("payment intent created",
		zap.String("user_id", userID),
		zap.String("reference", intent.ExternalReference),
		zap.String("method", method.Code),
		zap.Int64("amount_cents", intent.AmountCents),
	)
	return intent, payload, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*paymentdomain.PaymentIntent, error) {
	intent, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, paymentdomain.ErrUnknownReference
	}
	return intent, nil
}

// newReference mints a ULID from crypto randomness. Platforms echo this
// back verbatim, so it must never collide or be guessable in bulk.
func (s *Service) newReference() string {
	return ulid.MustNew(ulid.Timestamp(s.clock.Now()), rand.Reader).String()
}
