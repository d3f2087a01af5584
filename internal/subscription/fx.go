package subscription

import (
	"github.com/almubaDev/apiTN/internal/subscription/repository"
	subscriptionservice "github.com/almubaDev/apiTN/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(subscriptionservice.NewService),
)
