package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// HeaderUserID carries the opaque user id injected by the upstream
	// identity layer. This service never authenticates on its own.
	HeaderUserID = "X-User-Id"

	contextUserIDKey = "user_id"
)

func (s *Server) UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

// StatusRateLimit throttles the poll endpoint per client address so an
// aggressive redirect page cannot hammer platform status checks. When
// redis is unreachable the request passes; the limiter protects the
// platform clients, it is not an availability dependency.
func (s *Server) StatusRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := s.statusLimiter.AllowIP(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.log.Warn("status rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
