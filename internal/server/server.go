package server

import (
	"context"
	"net/http"
	"time"

	"github.com/almubaDev/apiTN/internal/billing"
	billingdomain "github.com/almubaDev/apiTN/internal/billing/domain"
	"github.com/almubaDev/apiTN/internal/catalog"
	catalogdomain "github.com/almubaDev/apiTN/internal/catalog/domain"
	"github.com/almubaDev/apiTN/internal/clock"
	"github.com/almubaDev/apiTN/internal/config"
	"github.com/almubaDev/apiTN/internal/migration"
	"github.com/almubaDev/apiTN/internal/observability/metrics"
	"github.com/almubaDev/apiTN/internal/payment"
	"github.com/almubaDev/apiTN/internal/payment/adapter"
	paymentdomain "github.com/almubaDev/apiTN/internal/payment/domain"
	"github.com/almubaDev/apiTN/internal/providers/email"
	"github.com/almubaDev/apiTN/internal/ratelimit"
	"github.com/almubaDev/apiTN/internal/scheduler"
	"github.com/almubaDev/apiTN/internal/subscription"
	subdomain "github.com/almubaDev/apiTN/internal/subscription/domain"
	"github.com/almubaDev/apiTN/internal/wallet"
	walletdomain "github.com/almubaDev/apiTN/internal/wallet/domain"
	"github.com/almubaDev/apiTN/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	metrics.Module,
	db.Module,
	migration.Module,
	email.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	catalog.Module,
	wallet.Module,
	subscription.Module,
	billing.Module,
	payment.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(m.Handler())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(m *metrics.Metrics) *gin.Engine {
	return NewEngine(m)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	catalogSvc      catalogdomain.Service
	walletSvc       walletdomain.Service
	subscriptionSvc subdomain.Service
	billingSvc      billingdomain.Service
	intentSvc       paymentdomain.IntentService
	reconcileSvc    paymentdomain.ReconcileService
	adapters        *adapter.Registry
	statusLimiter   *ratelimit.StatusPollLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	CatalogSvc      catalogdomain.Service
	WalletSvc       walletdomain.Service
	SubscriptionSvc subdomain.Service
	BillingSvc      billingdomain.Service
	IntentSvc       paymentdomain.IntentService
	ReconcileSvc    paymentdomain.ReconcileService
	Adapters        *adapter.Registry
	StatusLimiter   *ratelimit.StatusPollLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		genID:           p.GenID,
		catalogSvc:      p.CatalogSvc,
		walletSvc:       p.WalletSvc,
		subscriptionSvc: p.SubscriptionSvc,
		billingSvc:      p.BillingSvc,
		intentSvc:       p.IntentSvc,
		reconcileSvc:    p.ReconcileSvc,
		adapters:        p.Adapters,
		statusLimiter:   p.StatusLimiter,
	}

	svc.registerCatalogRoutes()
	svc.registerAccountRoutes()
	svc.registerPaymentRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCatalogRoutes() {
	api := s.engine.Group("/api")

	api.GET("/catalog/methods", s.ListPaymentMethods)
	api.GET("/catalog/packages", s.ListCreditPackages)
	api.GET("/catalog/plans", s.ListSubscriptionPlans)
}

func (s *Server) registerAccountRoutes() {
	api := s.engine.Group("/api", s.UserRequired())

	api.GET("/wallet", s.GetWallet)
	api.GET("/wallet/transactions", s.ListWalletTransactions)

	api.GET("/subscription", s.GetSubscription)
	api.POST("/subscription", s.Subscribe)
	api.POST("/subscription/cancel", s.CancelSubscription)

	api.POST("/billing/charge", s.ChargeForAction)
	api.GET("/billing/history", s.ListUsageHistory)
	api.GET("/billing/stats", s.GetUserStats)
	api.GET("/billing/summary", s.GetBillingSummary)
}

func (s *Server) registerPaymentRoutes() {
	api := s.engine.Group("/api")

	api.POST("/billing/intents", s.UserRequired(), s.CreatePaymentIntent)
	// Clients poll while the platform redirect is in flight, so this one
	// stays outside auth but behind the limiter.
	api.GET("/payments/status", s.StatusRateLimit(), s.GetPaymentStatus)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/payments/:method", s.HandlePaymentWebhook)
}
