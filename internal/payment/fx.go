package payment

import (
	"github.com/almubaDev/apiTN/internal/payment/adapter"
	"github.com/almubaDev/apiTN/internal/payment/platform"
	"github.com/almubaDev/apiTN/internal/payment/repository"
	paymentservice "github.com/almubaDev/apiTN/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(adapter.NewRegistry),
	fx.Provide(platform.NewClient),
	fx.Provide(paymentservice.NewService),
	fx.Provide(paymentservice.NewReconciler),
)
