package server

import (
	"net/http"
	"strconv"
	"strings"

	billingdomain "github.com/almubaDev/apiTN/internal/billing/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type chargeRequest struct {
	ActionName string         `json:"accion" binding:"required"`
	Question   string         `json:"pregunta"`
	Cost       int64          `json:"costo" binding:"required"`
	Result     datatypes.JSON `json:"resultado,omitempty"`
}

func (s *Server) ChargeForAction(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.billingSvc.ChargeForAction(c.Request.Context(), billingdomain.ChargeRequest{
		UserID:     currentUserID(c),
		ActionName: strings.TrimSpace(req.ActionName),
		Question:   strings.TrimSpace(req.Question),
		Cost:       req.Cost,
		Result:     req.Result,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListUsageHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := s.billingSvc.History(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"historial": history})
}

func (s *Server) GetUserStats(c *gin.Context) {
	stats, err := s.billingSvc.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) GetBillingSummary(c *gin.Context) {
	summary, err := s.billingSvc.Summary(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
