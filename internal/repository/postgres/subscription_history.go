package postgres

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

type subscriptionHistoryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionHistoryRepository(db *postgres.DB, logger *logger.Logger) subscriptionhistory.Repository {
	return &subscriptionHistoryRepository{db: db, logger: logger}
}

func (r *subscriptionHistoryRepository) Create(ctx context.Context, entry *subscriptionhistory.SubscriptionHistory) error {
	query := `
		INSERT INTO subscription_history (
			id, subscription_id, event_type, description, external_event_id, actor, created_at
		) VALUES (
			:id, :subscription_id, :event_type, :description, :external_event_id, :actor, :created_at
		)
	`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, entry); err != nil {
		return wrapWriteError(err, "create subscription history")
	}
	return nil
}

func (r *subscriptionHistoryRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscriptionhistory.SubscriptionHistory, error) {
	query := `
		SELECT id, subscription_id, event_type, description, external_event_id, actor, created_at
		FROM subscription_history
		WHERE subscription_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var entries []*subscriptionhistory.SubscriptionHistory
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query, subscriptionID); err != nil {
		return nil, wrapListError(err, "subscription history")
	}
	return entries, nil
}
