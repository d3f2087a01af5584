package server

import (
	"errors"
	"net/http"

	billingdomain "github.com/almubaDev/apiTN/internal/billing/domain"
	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	paymentdomain "github.com/almubaDev/apiTN/internal/payment/domain"
	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, walletdomain.ErrInvalidUser):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, walletdomain.ErrInvalidAmount),
		errors.Is(err, billingdomain.ErrInvalidCharge),
		errors.Is(err, paymentdomain.ErrMalformedWebhook):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}

	case errors.Is(err, billingdomain.ErrInsufficientFunds),
		errors.Is(err, walletdomain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_funds",
			Message: "créditos insuficientes",
		}

	case errors.Is(err, paymentdomain.ErrUnsupportedRegion):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unsupported_region",
			Message: "payment method not available in this country",
		}

	case errors.Is(err, subdomain.ErrAlreadySubscribed),
		errors.Is(err, subdomain.ErrRenewNotAllowed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}

	case errors.Is(err, paymentdomain.ErrUnknownReference),
		errors.Is(err, subdomain.ErrNoActiveSubscription),
		errors.Is(err, subdomain.ErrPlanNotFound),
		errors.Is(err, catalogdomain.ErrMethodNotFound),
		errors.Is(err, catalogdomain.ErrPackageNotFound),
		errors.Is(err, catalogdomain.ErrButtonNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}

	case errors.Is(err, paymentdomain.ErrUnverifiedCompletion):
		return http.StatusBadGateway, errorPayload{
			Type:    "unverified_completion",
			Message: "payment platform could not verify the payment",
		}

	case errors.Is(err, db.ErrTransient):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "temporary storage failure, retry",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
