package webhookevent

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Repository is append-only apart from UpdateOutcome
type Repository interface {
	Create(ctx context.Context, event *WebhookEvent) error
	Get(ctx context.Context, id string) (*WebhookEvent, error)
	// UpdateOutcome writes processed, processed_at, error_message, attempts
	// and last_attempt_at. Other columns are never touched.
	UpdateOutcome(ctx context.Context, event *WebhookEvent) error
	List(ctx context.Context, filter *types.WebhookEventFilter) ([]*WebhookEvent, error)
	Count(ctx context.Context, filter *types.WebhookEventFilter) (int, error)
	// ListRetryable returns unprocessed events below maxAttempts whose last
	// attempt is older than before, oldest first
	ListRetryable(ctx context.Context, maxAttempts int, before time.Time, limit int) ([]*WebhookEvent, error)
}
