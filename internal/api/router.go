package api

import (
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/api/handler"
	"github.com/ayo6706/mobile-money-ledger/internal/api/middleware"
	"github.com/ayo6706/mobile-money-ledger/internal/api/spec"
	"github.com/ayo6706/mobile-money-ledger/internal/auth"
	"github.com/ayo6706/mobile-money-ledger/internal/config"
	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/idempotency"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services groups the engines the HTTP layer calls into.
type Services struct {
	Accounts  *service.AccountService
	Ledger    *service.LedgerService
	Transfers *service.TransferService
	Deposits  *service.DepositService
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        handler.Pinger
	redis     redis.Cmdable
	tokens    *auth.Tokens
	idemStore *idempotency.Store
	svc       Services
}

// NewRouter builds the HTTP surface. db, redis and idemStore may be nil.
func NewRouter(cfg *config.Config, logger *zap.Logger, db handler.Pinger, redis redis.Cmdable, tokens *auth.Tokens, idemStore *idempotency.Store, svc Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     redis,
		tokens:    tokens,
		idemStore: idemStore,
		svc:       svc,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.CORS(api.cfg.CORSAllowedOrigins))

	authHandler := handler.NewAuthHandler(api.svc.Accounts)
	accountHandler := handler.NewAccountHandler(api.svc.Accounts, api.svc.Ledger)
	transferHandler := handler.NewTransferHandler(api.svc.Transfers)
	adminHandler := handler.NewAdminHandler(api.svc.Deposits, api.svc.Accounts, api.svc.Ledger)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	idem := middleware.IdempotencyMiddleware(api.idemStore, api.logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handler.RespondJSON(w, http.StatusOK, map[string]string{"message": "Mobile Money API"})
	})
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(api.tokens))
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/api/transactions", accountHandler.GetTransactions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleClient, domain.RoleAgent))
			r.Get("/api/balance", accountHandler.GetBalance)
			r.With(idem).Post("/api/transfer", transferHandler.Transfer)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.With(idem).Post("/approve-deposit", adminHandler.ApproveDeposit)
			r.Get("/pending-transactions", adminHandler.PendingTransactions)
			r.Post("/kyc", adminHandler.UpdateKYC)
		})
	})

	return r
}
