package email

import (
	"github.com/almubaDev/apiTN/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.Email.SMTPHost == "" {
		return &noop{log: log.Named("email")}
	}
	return newSMTP(cfg.Email)
}

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)
