package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createIntentRequest struct {
	PackageID  int64  `json:"package_id" binding:"required"`
	MethodCode string `json:"metodo_pago" binding:"required"`
	Country    string `json:"pais"`
}

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	intent, payload, err := s.intentSvc.CreateIntent(
		c.Request.Context(),
		currentUserID(c),
		snowflake.ID(req.PackageID),
		strings.ToLower(strings.TrimSpace(req.MethodCode)),
		req.Country,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"referencia": intent.ExternalReference,
		"redirect":   payload,
	})
}

func (s *Server) GetPaymentStatus(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	outcome, err := s.reconcileSvc.CheckStatus(c.Request.Context(), reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
