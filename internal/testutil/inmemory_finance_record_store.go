package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/shopspring/decimal"
)

// InMemoryFinanceRecordStore implements financerecord.Repository
type InMemoryFinanceRecordStore struct {
	*InMemoryStore[*financerecord.FinanceRecord]
}

func NewInMemoryFinanceRecordStore() *InMemoryFinanceRecordStore {
	return &InMemoryFinanceRecordStore{
		InMemoryStore: NewInMemoryStore[*financerecord.FinanceRecord](),
	}
}

func (s *InMemoryFinanceRecordStore) CreateIfNotExists(ctx context.Context, record *financerecord.FinanceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ReferenceKey == record.ReferenceKey {
			return false, nil
		}
	}
	out := *record
	s.items[record.ID] = &out
	return true, nil
}

func (s *InMemoryFinanceRecordStore) ExistsByDescriptionAndAmount(ctx context.Context, clientID string, description string, amount decimal.Decimal) (bool, error) {
	_, found := s.Find(ctx, func(r *financerecord.FinanceRecord) bool {
		return r.ClientID == clientID && r.Description == description && r.Amount.Equal(amount)
	})
	return found, nil
}

func (s *InMemoryFinanceRecordStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*financerecord.FinanceRecord, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, r *financerecord.FinanceRecord, _ interface{}) bool {
			return r.SubscriptionID != nil && *r.SubscriptionID == subscriptionID
		},
		func(a, b *financerecord.FinanceRecord) bool {
			return a.OccurredOn.Before(b.OccurredOn)
		},
	)
}
