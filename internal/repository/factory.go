package repository

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
	postgresRepo "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/repository/postgres"
)

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return postgresRepo.NewClientRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewSubscriptionPaymentRepository(db *postgres.DB, logger *logger.Logger) subscriptionpayment.Repository {
	return postgresRepo.NewSubscriptionPaymentRepository(db, logger)
}

func NewFinanceRecordRepository(db *postgres.DB, logger *logger.Logger) financerecord.Repository {
	return postgresRepo.NewFinanceRecordRepository(db, logger)
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscriptionhistory.Repository {
	return postgresRepo.NewSubscriptionHistoryRepository(db, logger)
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return postgresRepo.NewWebhookEventRepository(db, logger)
}
