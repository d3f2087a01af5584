package server

import (
	"net/http"
	"strings"

	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	PlanID     int64  `json:"plan_id" binding:"required"`
	MethodCode string `json:"metodo_pago" binding:"required"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.GetActive(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub == nil {
		AbortWithError(c, subdomain.ErrNoActiveSubscription)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sub, err := s.subscriptionSvc.Subscribe(
		c.Request.Context(),
		currentUserID(c),
		snowflake.ID(req.PlanID),
		strings.ToLower(strings.TrimSpace(req.MethodCode)),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	if err := s.subscriptionSvc.Cancel(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
