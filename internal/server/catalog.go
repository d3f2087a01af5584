package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListPaymentMethods(c *gin.Context) {
	country := strings.TrimSpace(c.Query("pais"))

	methods, err := s.catalogSvc.ListMethods(c.Request.Context(), country)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metodos_pago": methods})
}

func (s *Server) ListCreditPackages(c *gin.Context) {
	country := strings.TrimSpace(c.Query("pais"))

	packages, err := s.catalogSvc.ListPackages(c.Request.Context(), country)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paquetes": packages})
}

func (s *Server) ListSubscriptionPlans(c *gin.Context) {
	plans, err := s.subscriptionSvc.ListPlans(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"planes": plans})
}
