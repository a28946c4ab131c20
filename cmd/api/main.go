package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradepulse/tradepulse-backend/api/routes"
	"github.com/tradepulse/tradepulse-backend/internal/auditlog"
	authsvc "github.com/tradepulse/tradepulse-backend/internal/auth"
	"github.com/tradepulse/tradepulse-backend/internal/billing"
	"github.com/tradepulse/tradepulse-backend/internal/commissions"
	"github.com/tradepulse/tradepulse-backend/internal/notifications"
	"github.com/tradepulse/tradepulse-backend/internal/pairs"
	"github.com/tradepulse/tradepulse-backend/internal/subscriptions"
	"github.com/tradepulse/tradepulse-backend/internal/users"
	"github.com/tradepulse/tradepulse-backend/pkg/auth/session"
	"github.com/tradepulse/tradepulse-backend/pkg/config"
	"github.com/tradepulse/tradepulse-backend/pkg/db"
	"github.com/tradepulse/tradepulse-backend/pkg/logger"
	"github.com/tradepulse/tradepulse-backend/pkg/metrics"
	"github.com/tradepulse/tradepulse-backend/pkg/migrate"
	"github.com/tradepulse/tradepulse-backend/pkg/pubsub"
	"github.com/tradepulse/tradepulse-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	mailer, err := notifications.NewPublisher(pubsubClient.EmailPublisher(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create email publisher", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	subscriptionMetrics := metrics.NewSubscriptionMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	pairsRepo := pairs.NewRepository(dbClient.DB())
	subscriptionsRepo := subscriptions.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())
	commissionsRepo := commissions.NewRepository(dbClient.DB())
	auditRepo := auditlog.NewRepository(dbClient.DB())

	auditService, err := auditlog.NewService(auditRepo)
	if err != nil {
		logg.Error(ctx, "failed to create audit log service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}
	pairsService, err := pairs.NewService(pairsRepo, auditService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create pairs service", err)
		os.Exit(1)
	}
	commissionsService, err := commissions.NewService(commissionsRepo, usersRepo, auditService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create commissions service", err)
		os.Exit(1)
	}
	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:        billingRepo,
		Users:       usersRepo,
		Commissions: commissionsService,
		Audit:       auditService,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create billing service", err)
		os.Exit(1)
	}
	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:    subscriptionsRepo,
		Users:   usersRepo,
		Pairs:   pairsRepo,
		Tx:      dbClient,
		Audit:   auditService,
		Mailer:  mailer,
		Metrics: subscriptionMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create subscriptions service", err)
		os.Exit(1)
	}
	authService, err := authsvc.NewService(usersRepo, sessionManager, cfg.JWT, logg)
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Auth:          authService,
			Users:         usersService,
			Pairs:         pairsService,
			Subscriptions: subscriptionsService,
			Billing:       billingService,
			Commissions:   commissionsService,
			AuditLogs:     auditService,
			Metrics:       registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}
