package api

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/cron"
	v1 "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/v1"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/rest/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
	Webhook      *v1.WebhookHandler
	CronWebhook  *cron.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	// Ops routes
	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Gateway deliveries authenticate with the shared webhook token only
	router.POST("/webhooks/gateway",
		middleware.WebhookAuthMiddleware(cfg, logger),
		handlers.Webhook.HandleGatewayWebhook,
	)

	private := router.Group("/v1")
	private.Use(middleware.AuthenticateMiddleware(cfg, logger), middleware.SentryScopeMiddleware)

	subscriptions := private.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.GET("/:id/history", handlers.Subscription.GetHistory)
		subscriptions.GET("/:id/payments", handlers.Subscription.ListPayments)
		subscriptions.POST("/:id/sync", handlers.Subscription.SyncPayments)
	}

	webhooks := private.Group("/webhooks/events")
	webhooks.Use(middleware.RequireSystemUser)
	{
		webhooks.GET("", handlers.Webhook.ListEvents)
		webhooks.GET("/:id", handlers.Webhook.GetEvent)
		webhooks.POST("/:id/replay", handlers.Webhook.ReplayEvent)
	}

	cronGroup := private.Group("/cron")
	cronGroup.Use(middleware.RequireSystemUser)
	{
		cronGroup.POST("/webhooks/reprocess", handlers.CronWebhook.ReprocessPending)
	}

	return router
}
