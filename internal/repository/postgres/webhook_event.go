package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

const webhookEventColumns = `
	id, event_type, external_event_id, payload, processed, processed_at,
	error_message, attempts, last_attempt_at, received_at`

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *webhookevent.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (` + webhookEventColumns + `
		) VALUES (
			:id, :event_type, :external_event_id, :payload, :processed, :processed_at,
			:error_message, :attempts, :last_attempt_at, :received_at
		)
	`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, event); err != nil {
		return wrapWriteError(err, "create webhook event")
	}
	return nil
}

func (r *webhookEventRepository) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	query := "SELECT " + webhookEventColumns + " FROM webhook_events WHERE id = $1"

	var event webhookevent.WebhookEvent
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &event, query, id); err != nil {
		return nil, wrapGetError(err, "Webhook event", "webhook_event_id", id)
	}
	return &event, nil
}

func (r *webhookEventRepository) UpdateOutcome(ctx context.Context, event *webhookevent.WebhookEvent) error {
	query := `
		UPDATE webhook_events
		SET
			processed = :processed,
			processed_at = :processed_at,
			error_message = :error_message,
			attempts = :attempts,
			last_attempt_at = :last_attempt_at
		WHERE id = :id
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, event)
	if err != nil {
		return wrapWriteError(err, "update webhook event outcome")
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ierr.NewError("webhook event not found").
			WithHint("Webhook event not found").
			WithReportableDetails(map[string]any{"webhook_event_id": event.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *webhookEventRepository) List(ctx context.Context, filter *types.WebhookEventFilter) ([]*webhookevent.WebhookEvent, error) {
	if filter == nil {
		filter = types.NewWebhookEventFilter()
	}
	where, args := webhookEventWhere(filter)
	args = append(args, filter.GetLimit(), filter.GetOffset())
	query := "SELECT " + webhookEventColumns + " FROM webhook_events" + where +
		" ORDER BY received_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	var events []*webhookevent.WebhookEvent
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &events, query, args...); err != nil {
		return nil, wrapListError(err, "webhook events")
	}
	return events, nil
}

func (r *webhookEventRepository) Count(ctx context.Context, filter *types.WebhookEventFilter) (int, error) {
	where, args := webhookEventWhere(filter)

	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM webhook_events"+where, args...); err != nil {
		return 0, wrapListError(err, "webhook events")
	}
	return count, nil
}

func (r *webhookEventRepository) ListRetryable(ctx context.Context, maxAttempts int, before time.Time, limit int) ([]*webhookevent.WebhookEvent, error) {
	query := "SELECT " + webhookEventColumns + ` FROM webhook_events
		WHERE processed = false
			AND attempts < $1
			AND (last_attempt_at IS NULL OR last_attempt_at < $2)
		ORDER BY received_at ASC
		LIMIT $3`

	var events []*webhookevent.WebhookEvent
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &events, query, maxAttempts, before, limit); err != nil {
		return nil, wrapListError(err, "retryable webhook events")
	}
	return events, nil
}

func webhookEventWhere(filter *types.WebhookEventFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil && filter.Processed != nil {
		args = append(args, *filter.Processed)
		conds = append(conds, "processed = $"+strconv.Itoa(len(args)))
	}
	if filter != nil && filter.EventType != "" {
		args = append(args, filter.EventType)
		conds = append(conds, "event_type = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
