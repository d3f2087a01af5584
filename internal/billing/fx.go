package billing

import (
	"github.com/almubaDev/apiTN/internal/billing/repository"
	billingservice "github.com/almubaDev/apiTN/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(billingservice.NewService),
)
