package service

import (
	"context"

	"github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("catalog.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListMethods(ctx context.Context, countryCode string) ([]domain.PaymentMethod, error) {
	methods, err := s.repo.ListMethods(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if countryCode == "" {
		return methods, nil
	}

	filtered := make([]domain.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		if m.SupportsCountry(countryCode) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// ListPackages returns active packages with the payment buttons usable in
// the given country. Packages without any usable button are omitted.
func (s *Service) ListPackages(ctx context.Context, countryCode string) ([]domain.PackageWithButtons, error) {
	packages, err := s.repo.ListPackages(ctx, s.db)
	if err != nil {
		return nil, err
	}
	methods, err := s.repo.ListMethods(ctx, s.db)
	if err != nil {
		return nil, err
	}
	methodByID := make(map[snowflake.ID]domain.PaymentMethod, len(methods))
	for _, m := range methods {
		methodByID[m.ID] = m
	}

	out := make([]domain.PackageWithButtons, 0, len(packages))
	for _, pkg := range packages {
		buttons, err := s.repo.ListButtonsByPackage(ctx, s.db, pkg.ID)
		if err != nil {
			return nil, err
		}

		usable := make([]domain.PaymentButton, 0, len(buttons))
		for _, b := range buttons {
			method, ok := methodByID[b.MethodID]
			if !ok {
				continue
			}
			if countryCode != "" && !method.SupportsCountry(countryCode) {
				continue
			}
			b.Method = method
			usable = append(usable, b)
		}
		if len(usable) == 0 {
			continue
		}
		out = append(out, domain.PackageWithButtons{Package: pkg, Buttons: usable})
	}
	return out, nil
}

func (s *Service) GetPackage(ctx context.Context, id snowflake.ID) (*domain.CreditPackage, error) {
	pkg, err := s.repo.FindPackage(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrPackageNotFound
	}
	return pkg, nil
}

func (s *Service) GetMethodByCode(ctx context.Context, code string) (*domain.PaymentMethod, error) {
	method, err := s.repo.FindMethodByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, domain.ErrMethodNotFound
	}
	return method, nil
}

func (s *Service) GetButton(ctx context.Context, packageID, methodID snowflake.ID) (*domain.PaymentButton, error) {
	button, err := s.repo.FindButton(ctx, s.db, packageID, methodID)
	if err != nil {
		return nil, err
	}
	if button == nil {
		return nil, domain.ErrButtonNotFound
	}
	return button, nil
}
