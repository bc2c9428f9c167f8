package postgres

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
	"github.com/shopspring/decimal"
)

const financeRecordColumns = `
	id, client_id, subscription_id, subscription_payment_id, type, category,
	description, amount, occurred_on, reference_key, created_at`

type financeRecordRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewFinanceRecordRepository(db *postgres.DB, logger *logger.Logger) financerecord.Repository {
	return &financeRecordRepository{db: db, logger: logger}
}

func (r *financeRecordRepository) CreateIfNotExists(ctx context.Context, rec *financerecord.FinanceRecord) (bool, error) {
	query := `
		INSERT INTO finance_records (` + financeRecordColumns + `
		) VALUES (
			:id, :client_id, :subscription_id, :subscription_payment_id, :type, :category,
			:description, :amount, :occurred_on, :reference_key, :created_at
		)
		ON CONFLICT (reference_key) DO NOTHING
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, rec)
	if err != nil {
		return false, wrapWriteError(err, "create finance record")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.logger.Debugw("finance record already exists", "reference_key", rec.ReferenceKey)
	}
	return n > 0, nil
}

func (r *financeRecordRepository) ExistsByDescriptionAndAmount(ctx context.Context, clientID string, description string, amount decimal.Decimal) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM finance_records
			WHERE client_id = $1 AND description = $2 AND amount = $3
		)
	`

	var exists bool
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &exists, query, clientID, description, amount); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check finance records").
			Mark(ierr.ErrDatabase)
	}
	return exists, nil
}

func (r *financeRecordRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*financerecord.FinanceRecord, error) {
	query := "SELECT " + financeRecordColumns + " FROM finance_records WHERE subscription_id = $1 ORDER BY occurred_on DESC"

	var records []*financerecord.FinanceRecord
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &records, query, subscriptionID); err != nil {
		return nil, wrapListError(err, "finance records")
	}
	return records, nil
}
