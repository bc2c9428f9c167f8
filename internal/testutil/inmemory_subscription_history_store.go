package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
)

// InMemorySubscriptionHistoryStore implements subscriptionhistory.Repository
type InMemorySubscriptionHistoryStore struct {
	*InMemoryStore[*subscriptionhistory.SubscriptionHistory]
	seq map[string]int
}

func NewInMemorySubscriptionHistoryStore() *InMemorySubscriptionHistoryStore {
	return &InMemorySubscriptionHistoryStore{
		InMemoryStore: NewInMemoryStore[*subscriptionhistory.SubscriptionHistory](),
		seq:           make(map[string]int),
	}
}

func (s *InMemorySubscriptionHistoryStore) Create(ctx context.Context, entry *subscriptionhistory.SubscriptionHistory) error {
	out := *entry
	if err := s.InMemoryStore.Create(ctx, entry.ID, &out); err != nil {
		return err
	}
	s.mu.Lock()
	s.seq[entry.ID] = len(s.seq)
	s.mu.Unlock()
	return nil
}

// ListBySubscription returns entries in insertion order
func (s *InMemorySubscriptionHistoryStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscriptionhistory.SubscriptionHistory, error) {
	s.mu.RLock()
	seq := make(map[string]int, len(s.seq))
	for k, v := range s.seq {
		seq[k] = v
	}
	s.mu.RUnlock()

	return s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, e *subscriptionhistory.SubscriptionHistory, _ interface{}) bool {
			return e.SubscriptionID == subscriptionID
		},
		func(a, b *subscriptionhistory.SubscriptionHistory) bool {
			return seq[a.ID] < seq[b.ID]
		},
	)
}
