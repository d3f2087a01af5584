package email

import (
	"context"

	"go.uber.org/zap"
)

// noop logs instead of sending, used when SMTP is not configured.
type noop struct {
	log *zap.Logger
}

func (p *noop) Send(_ context.Context, msg Message) error {
	p.log.Info("email suppressed, smtp not configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
