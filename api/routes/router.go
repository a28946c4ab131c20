package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradepulse/tradepulse-backend/api/controllers"
	"github.com/tradepulse/tradepulse-backend/api/middleware"
	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	authsvc "github.com/tradepulse/tradepulse-backend/internal/auth"
	"github.com/tradepulse/tradepulse-backend/internal/billing"
	"github.com/tradepulse/tradepulse-backend/internal/commissions"
	"github.com/tradepulse/tradepulse-backend/internal/pairs"
	"github.com/tradepulse/tradepulse-backend/internal/subscriptions"
	"github.com/tradepulse/tradepulse-backend/internal/users"
	"github.com/tradepulse/tradepulse-backend/pkg/auth/session"
	"github.com/tradepulse/tradepulse-backend/pkg/config"
	"github.com/tradepulse/tradepulse-backend/pkg/db"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/redis"
)

// RouterParams collect everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Sessions      session.AccessSessionChecker
	Auth          authsvc.Service
	Users         users.Service
	Pairs         pairs.Service
	Subscriptions subscriptions.Service
	Billing       billing.Service
	Commissions   commissions.Service
	AuditLogs     auditlog.Service
	Metrics       *prometheus.Registry
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.Login(p.Auth, logg))
		r.Post("/logout", controllers.Logout(p.Auth, logg))
		r.Post("/refresh", controllers.Refresh(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionsGet(p.Subscriptions, logg))
			r.Post("/", controllers.SubscriptionsCreate(p.Subscriptions, logg))
			r.Patch("/", controllers.SubscriptionsUpdate(p.Subscriptions, logg))
			r.Delete("/", controllers.SubscriptionsDelete(p.Subscriptions, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/", controllers.BillingGet(p.Billing, logg))
			r.Post("/", controllers.BillingCreate(p.Billing, logg))
			r.Patch("/", controllers.BillingUpdate(p.Billing, logg))
			r.Get("/stats", controllers.BillingStats(p.Billing, logg))
		})

		r.Route("/affiliates", func(r chi.Router) {
			r.Get("/me", controllers.AffiliateMe(p.Commissions, logg))
			r.Get("/commissions", controllers.AffiliateCommissions(p.Commissions, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Get("/audit-logs", controllers.AuditLogsList(p.AuditLogs, logg))
		r.Get("/events", controllers.EventsList(p.AuditLogs, logg))
		r.Get("/users", controllers.UsersGet(p.Users, logg))

		r.Route("/pairs", func(r chi.Router) {
			r.Get("/", controllers.PairsGet(p.Pairs, logg))
			r.Post("/", controllers.PairsCreate(p.Pairs, logg))
			r.Patch("/", controllers.PairsUpdate(p.Pairs, logg))
			r.Delete("/", controllers.PairsDelete(p.Pairs, logg))
		})

		r.Post("/commissions/{id}/payout", controllers.CommissionPayout(p.Commissions, logg))
	})

	return r
}
