package postgres

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

const subscriptionColumns = `
	id, client_id, external_subscription_id, cadence, billing_cycle_months,
	amount, billing_day, payment_method, status, description, start_date,
	next_due_date, cancelled_at, cancellation_reason, cancelled_by, synced_at,
	idempotency_key, created_at, updated_at`

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `
		) VALUES (
			:id, :client_id, :external_subscription_id, :cadence, :billing_cycle_months,
			:amount, :billing_day, :payment_method, :status, :description, :start_date,
			:next_due_date, :cancelled_at, :cancellation_reason, :cancelled_by, :synced_at,
			:idempotency_key, :created_at, :updated_at
		)
	`

	r.logger.Debugw("creating subscription",
		"subscription_id", sub.ID,
		"client_id", sub.ClientID,
		"external_subscription_id", sub.GetExternalID(),
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		return wrapWriteError(err, "create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return r.getBy(ctx, "id", id)
}

func (r *subscriptionRepository) GetByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	return r.getBy(ctx, "external_subscription_id", externalSubscriptionID)
}

func (r *subscriptionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*subscription.Subscription, error) {
	return r.getBy(ctx, "idempotency_key", key)
}

// getBy looks up one row by a unique column; column is never user input
func (r *subscriptionRepository) getBy(ctx context.Context, column string, value string) (*subscription.Subscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM subscriptions WHERE " + column + " = $1"

	var sub subscription.Subscription
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, value); err != nil {
		return nil, wrapGetError(err, "Subscription", column, value)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		UPDATE subscriptions
		SET
			external_subscription_id = :external_subscription_id,
			cadence = :cadence,
			billing_cycle_months = :billing_cycle_months,
			amount = :amount,
			payment_method = :payment_method,
			next_due_date = :next_due_date,
			status = :status,
			cancelled_at = :cancelled_at,
			cancellation_reason = :cancellation_reason,
			cancelled_by = :cancelled_by,
			synced_at = :synced_at,
			updated_at = :updated_at
		WHERE id = :id
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return wrapWriteError(err, "update subscription")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// Cancel writes the cancellation fields unless the row is already cancelled.
// It reports false when another writer cancelled it first.
func (r *subscriptionRepository) Cancel(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	query := `
		UPDATE subscriptions
		SET
			status = :status,
			cancelled_at = :cancelled_at,
			cancellation_reason = :cancellation_reason,
			cancelled_by = :cancelled_by,
			updated_at = :updated_at
		WHERE id = :id AND status <> 'cancelled'
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return false, wrapWriteError(err, "cancel subscription")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Infow("subscription already cancelled, skipping write",
			"subscription_id", sub.ID,
		)
	}
	return n > 0, nil
}

func (r *subscriptionRepository) ListByClient(ctx context.Context, clientID string) ([]*subscription.Subscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM subscriptions WHERE client_id = $1 ORDER BY created_at DESC"

	var subs []*subscription.Subscription
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query, clientID); err != nil {
		return nil, wrapListError(err, "subscriptions")
	}
	return subs, nil
}
