package service

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/publisher"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Metrics *metrics.BillingMetrics
	Sentry  *sentry.Service

	// Repositories
	ClientRepo        client.Repository
	SubRepo           subscription.Repository
	SubPaymentRepo    subscriptionpayment.Repository
	FinanceRecordRepo financerecord.Repository
	SubHistoryRepo    subscriptionhistory.Repository
	WebhookEventRepo  webhookevent.Repository

	// Payment gateway
	Gateway gateway.Client

	// Publishers
	BillingPublisher publisher.BillingPublisher

	// Now is overridden in tests; nil means time.Now in UTC
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	metrics *metrics.BillingMetrics,
	sentry *sentry.Service,
	clientRepo client.Repository,
	subRepo subscription.Repository,
	subPaymentRepo subscriptionpayment.Repository,
	financeRecordRepo financerecord.Repository,
	subHistoryRepo subscriptionhistory.Repository,
	webhookEventRepo webhookevent.Repository,
	gatewayClient gateway.Client,
	billingPublisher publisher.BillingPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                db,
		Metrics:           metrics,
		Sentry:            sentry,
		ClientRepo:        clientRepo,
		SubRepo:           subRepo,
		SubPaymentRepo:    subPaymentRepo,
		FinanceRecordRepo: financeRecordRepo,
		SubHistoryRepo:    subHistoryRepo,
		WebhookEventRepo:  webhookEventRepo,
		Gateway:           gatewayClient,
		BillingPublisher:  billingPublisher,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
