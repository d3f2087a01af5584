package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// HandlePaymentWebhook accepts platform pushes. Malformed bodies get a
// 400 so the platform retries with a fix; everything else answers 200,
// because business rejections (unknown reference, replays) must not put
// the platform into a retry loop.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	method := c.Param("method")
	event, err := s.adapters.For(method).ParseWebhook(body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outcome, err := s.reconcileSvc.ConfirmByReference(c.Request.Context(), event)
	if err != nil {
		s.log.Warn("webhook confirmation rejected",
			zap.String("method", method),
			zap.String("reference", event.Reference),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "estado": outcome.Status})
}
