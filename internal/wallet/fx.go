package wallet

import (
	"github.com/almubaDev/apiTN/internal/wallet/repository"
	walletservice "github.com/almubaDev/apiTN/internal/wallet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet.service",
	fx.Provide(repository.Provide),
	fx.Provide(walletservice.NewService),
)
