package postgres

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

const subscriptionPaymentColumns = `
	id, subscription_id, external_payment_id, amount, due_date, paid_at, status,
	period_start, period_end, invoice_url, invoice_number, payment_method,
	created_at, updated_at`

type subscriptionPaymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionPaymentRepository(db *postgres.DB, logger *logger.Logger) subscriptionpayment.Repository {
	return &subscriptionPaymentRepository{db: db, logger: logger}
}

func (r *subscriptionPaymentRepository) CreateIfNotExists(ctx context.Context, p *subscriptionpayment.SubscriptionPayment) (bool, error) {
	query := `
		INSERT INTO subscription_payments (` + subscriptionPaymentColumns + `
		) VALUES (
			:id, :subscription_id, :external_payment_id, :amount, :due_date, :paid_at, :status,
			:period_start, :period_end, :invoice_url, :invoice_number, :payment_method,
			:created_at, :updated_at
		)
		ON CONFLICT (external_payment_id) DO NOTHING
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return false, wrapWriteError(err, "create subscription payment")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Debugw("subscription payment already recorded",
			"external_payment_id", p.ExternalPaymentID,
		)
	}
	return n > 0, nil
}

func (r *subscriptionPaymentRepository) Get(ctx context.Context, id string) (*subscriptionpayment.SubscriptionPayment, error) {
	query := "SELECT " + subscriptionPaymentColumns + " FROM subscription_payments WHERE id = $1"

	var p subscriptionpayment.SubscriptionPayment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id); err != nil {
		return nil, wrapGetError(err, "Subscription payment", "subscription_payment_id", id)
	}
	return &p, nil
}

func (r *subscriptionPaymentRepository) GetByExternalID(ctx context.Context, externalPaymentID string) (*subscriptionpayment.SubscriptionPayment, error) {
	query := "SELECT " + subscriptionPaymentColumns + " FROM subscription_payments WHERE external_payment_id = $1"

	var p subscriptionpayment.SubscriptionPayment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, externalPaymentID); err != nil {
		return nil, wrapGetError(err, "Subscription payment", "external_payment_id", externalPaymentID)
	}
	return &p, nil
}

func (r *subscriptionPaymentRepository) Update(ctx context.Context, p *subscriptionpayment.SubscriptionPayment) error {
	query := `
		UPDATE subscription_payments
		SET
			amount = :amount,
			due_date = :due_date,
			paid_at = :paid_at,
			status = :status,
			invoice_url = :invoice_url,
			invoice_number = :invoice_number,
			updated_at = :updated_at
		WHERE id = :id
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		return wrapWriteError(err, "update subscription payment")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ierr.NewError("subscription payment not found").
			WithHint("Subscription payment not found").
			WithReportableDetails(map[string]any{"subscription_payment_id": p.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionPaymentRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscriptionpayment.SubscriptionPayment, error) {
	query := "SELECT " + subscriptionPaymentColumns + " FROM subscription_payments WHERE subscription_id = $1 ORDER BY due_date DESC"

	var payments []*subscriptionpayment.SubscriptionPayment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, subscriptionID); err != nil {
		return nil, wrapListError(err, "subscription payments")
	}
	return payments, nil
}
