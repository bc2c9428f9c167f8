package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// wrapGetError maps a single-row lookup failure to the error taxonomy
func wrapGetError(err error, entity string, key string, value string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			WithReportableDetails(map[string]any{key: value}).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHintf("Failed to load %s", entity).
		Mark(ierr.ErrDatabase)
}

func wrapWriteError(err error, op string) error {
	if isUniqueViolation(err) {
		return ierr.WithError(err).
			WithMessage(op).
			WithHint("Record already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithMessage(op).
		WithHint("Database operation failed").
		Mark(ierr.ErrDatabase)
}

func wrapListError(err error, entity string) error {
	return ierr.WithError(err).
		WithHintf("Failed to list %s", entity).
		Mark(ierr.ErrDatabase)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return n, nil
}
