package testutil

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.WebhookEvent]

	// CreateErr, when set, fails every Create
	CreateErr error

	// UpdateOutcomeErr, when set, fails every UpdateOutcome
	UpdateOutcomeErr error
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.WebhookEvent](),
	}
}

func copyWebhookEvent(e *webhookevent.WebhookEvent) *webhookevent.WebhookEvent {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

func webhookEventFilterFn(_ context.Context, e *webhookevent.WebhookEvent, filter interface{}) bool {
	f, ok := filter.(*types.WebhookEventFilter)
	if !ok || f == nil {
		return true
	}
	if f.Processed != nil && e.Processed != *f.Processed {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	return true
}

func oldestFirst(a, b *webhookevent.WebhookEvent) bool {
	if a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ID < b.ID
	}
	return a.ReceivedAt.Before(b.ReceivedAt)
}

func (s *InMemoryWebhookEventStore) Create(ctx context.Context, e *webhookevent.WebhookEvent) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	return s.InMemoryStore.Create(ctx, e.ID, copyWebhookEvent(e))
}

func (s *InMemoryWebhookEventStore) Get(ctx context.Context, id string) (*webhookevent.WebhookEvent, error) {
	e, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyWebhookEvent(e), nil
}

func (s *InMemoryWebhookEventStore) UpdateOutcome(ctx context.Context, e *webhookevent.WebhookEvent) error {
	if s.UpdateOutcomeErr != nil {
		return s.UpdateOutcomeErr
	}
	existing, err := s.InMemoryStore.Get(ctx, e.ID)
	if err != nil {
		return err
	}
	updated := copyWebhookEvent(existing)
	updated.Processed = e.Processed
	updated.ProcessedAt = e.ProcessedAt
	updated.ErrorMessage = e.ErrorMessage
	updated.Attempts = e.Attempts
	updated.LastAttemptAt = e.LastAttemptAt
	return s.InMemoryStore.Update(ctx, e.ID, updated)
}

func (s *InMemoryWebhookEventStore) List(ctx context.Context, filter *types.WebhookEventFilter) ([]*webhookevent.WebhookEvent, error) {
	if filter == nil {
		filter = types.NewWebhookEventFilter()
	}
	return s.InMemoryStore.List(ctx, filter, webhookEventFilterFn, oldestFirst)
}

func (s *InMemoryWebhookEventStore) Count(ctx context.Context, filter *types.WebhookEventFilter) (int, error) {
	if filter == nil {
		filter = types.NewWebhookEventFilter()
	}
	return s.InMemoryStore.Count(ctx, filter, webhookEventFilterFn)
}

func (s *InMemoryWebhookEventStore) ListRetryable(ctx context.Context, maxAttempts int, before time.Time, limit int) ([]*webhookevent.WebhookEvent, error) {
	events, err := s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, e *webhookevent.WebhookEvent, _ interface{}) bool {
			if e.Processed || e.Attempts >= maxAttempts {
				return false
			}
			return e.LastAttemptAt == nil || e.LastAttemptAt.Before(before)
		},
		oldestFirst,
	)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	out := make([]*webhookevent.WebhookEvent, len(events))
	for i, e := range events {
		out[i] = copyWebhookEvent(e)
	}
	return out, nil
}

// All returns every stored delivery, oldest first
func (s *InMemoryWebhookEventStore) All(ctx context.Context) []*webhookevent.WebhookEvent {
	events, _ := s.InMemoryStore.List(ctx, nil, nil, oldestFirst)
	return events
}
