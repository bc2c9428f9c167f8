package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]

	// CreateErr, when set, fails the next Create
	CreateErr error

	// BeforeCreate, when set, runs once ahead of the next Create
	BeforeCreate func(sub *subscription.Subscription)
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	out := *sub
	return &out
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := s.CreateErr; err != nil {
		s.CreateErr = nil
		return err
	}
	if hook := s.BeforeCreate; hook != nil {
		s.BeforeCreate = nil
		hook(sub)
	}

	conflict := func(existing *subscription.Subscription) bool {
		if sub.ExternalSubscriptionID != nil && existing.GetExternalID() == *sub.ExternalSubscriptionID {
			return true
		}
		return sub.IdempotencyKey != nil && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *sub.IdempotencyKey
	}
	if _, found := s.Find(ctx, conflict); found {
		return ierr.NewError("subscription already exists").
			WithHint("A subscription with this reference already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, copySubscription(sub))
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) findOne(ctx context.Context, fn func(*subscription.Subscription) bool) (*subscription.Subscription, error) {
	sub, found := s.Find(ctx, fn)
	if !found {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return copySubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	return s.findOne(ctx, func(sub *subscription.Subscription) bool {
		return sub.GetExternalID() == externalSubscriptionID
	})
}

func (s *InMemorySubscriptionStore) GetByIdempotencyKey(ctx context.Context, key string) (*subscription.Subscription, error) {
	return s.findOne(ctx, func(sub *subscription.Subscription) bool {
		return sub.IdempotencyKey != nil && *sub.IdempotencyKey == key
	})
}

// Update writes the same columns the SQL update does
func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[sub.ID]
	if !ok {
		return ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	next := copySubscription(existing)
	next.ExternalSubscriptionID = sub.ExternalSubscriptionID
	next.Cadence = sub.Cadence
	next.BillingCycleMonths = sub.BillingCycleMonths
	next.Amount = sub.Amount
	next.PaymentMethod = sub.PaymentMethod
	next.NextDueDate = sub.NextDueDate
	next.Status = sub.Status
	next.CancelledAt = sub.CancelledAt
	next.CancellationReason = sub.CancellationReason
	next.CancelledBy = sub.CancelledBy
	next.SyncedAt = sub.SyncedAt
	next.UpdatedAt = sub.UpdatedAt
	s.items[sub.ID] = next
	return nil
}

func (s *InMemorySubscriptionStore) Cancel(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[sub.ID]
	if !ok {
		return false, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	if existing.IsCancelled() {
		return false, nil
	}
	next := copySubscription(existing)
	next.Status = sub.Status
	next.CancelledAt = sub.CancelledAt
	next.CancellationReason = sub.CancellationReason
	next.CancelledBy = sub.CancelledBy
	next.UpdatedAt = sub.UpdatedAt
	s.items[sub.ID] = next
	return true, nil
}

func (s *InMemorySubscriptionStore) ListByClient(ctx context.Context, clientID string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
			return sub.ClientID == clientID
		},
		func(a, b *subscription.Subscription) bool {
			return a.CreatedAt.After(b.CreatedAt)
		},
	)
}
