package postgres

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

type clientRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewClientRepository(db *postgres.DB, logger *logger.Logger) client.Repository {
	return &clientRepository{db: db, logger: logger}
}

func (r *clientRepository) Get(ctx context.Context, id string) (*client.Client, error) {
	query := `
		SELECT
			id,
			COALESCE(owner_id, '') AS owner_id,
			name,
			COALESCE(email, '') AS email,
			COALESCE(document, '') AS document,
			COALESCE(phone, '') AS phone,
			external_customer_id,
			created_at,
			updated_at
		FROM clients
		WHERE id = $1
	`

	var c client.Client
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id); err != nil {
		return nil, wrapGetError(err, "Client", "client_id", id)
	}
	return &c, nil
}

func (r *clientRepository) SetExternalCustomerID(ctx context.Context, id string, externalCustomerID string) error {
	query := `
		UPDATE clients
		SET external_customer_id = $2, updated_at = $3
		WHERE id = $1
	`

	r.logger.Debugw("saving gateway customer mapping",
		"client_id", id,
		"external_customer_id", externalCustomerID,
	)

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, externalCustomerID, time.Now().UTC())
	if err != nil {
		return wrapWriteError(err, "set external customer id")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ierr.NewError("client not found").
			WithHint("Client not found").
			WithReportableDetails(map[string]any{"client_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
