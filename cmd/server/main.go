package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api"
	apicron "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/cron"
	v1 "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/v1"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/cron"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/publisher"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/repository"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/sentry"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/service"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Billing API
// @version 1.0
// @description Subscription billing and payment gateway reconciliation
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,
		),

		// Monitoring
		sentry.Module(),
		metrics.Module(),

		// Postgres
		postgres.Module(),
		fx.Provide(postgres.NewSentryClient),

		fx.Provide(
			// Repositories
			repository.NewClientRepository,
			repository.NewSubscriptionRepository,
			repository.NewSubscriptionPaymentRepository,
			repository.NewFinanceRecordRepository,
			repository.NewSubscriptionHistoryRepository,
			repository.NewWebhookEventRepository,

			// Payment gateway
			gateway.NewClient,
		),

		// Billing event publisher and consumers
		publisher.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewSubscriptionService,
			service.NewHistoryService,
			service.NewWebhookService,
			cron.NewScheduler,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	subscriptionService service.SubscriptionService,
	historyService service.HistoryService,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, historyService, logger),
		Webhook:      v1.NewWebhookHandler(webhookService, logger),
		CronWebhook:  apicron.NewWebhookHandler(webhookService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	scheduler *cron.Scheduler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		cron.RegisterHooks(lc, scheduler)
	case types.ModeAPI:
		// the sweep is triggered through the cron endpoint instead
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
