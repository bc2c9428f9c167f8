package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
)

// InMemorySubscriptionPaymentStore implements subscriptionpayment.Repository
// with the same insert-ignore semantics as the unique external payment id
type InMemorySubscriptionPaymentStore struct {
	*InMemoryStore[*subscriptionpayment.SubscriptionPayment]

	// BeforeInsert, when set, runs once ahead of the next CreateIfNotExists
	BeforeInsert func(p *subscriptionpayment.SubscriptionPayment)
}

func NewInMemorySubscriptionPaymentStore() *InMemorySubscriptionPaymentStore {
	return &InMemorySubscriptionPaymentStore{
		InMemoryStore: NewInMemoryStore[*subscriptionpayment.SubscriptionPayment](),
	}
}

func copyPayment(p *subscriptionpayment.SubscriptionPayment) *subscriptionpayment.SubscriptionPayment {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func (s *InMemorySubscriptionPaymentStore) CreateIfNotExists(ctx context.Context, p *subscriptionpayment.SubscriptionPayment) (bool, error) {
	if hook := s.BeforeInsert; hook != nil {
		s.BeforeInsert = nil
		hook(p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ExternalPaymentID == p.ExternalPaymentID {
			return false, nil
		}
	}
	s.items[p.ID] = copyPayment(p)
	return true, nil
}

func (s *InMemorySubscriptionPaymentStore) Get(ctx context.Context, id string) (*subscriptionpayment.SubscriptionPayment, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyPayment(p), nil
}

func (s *InMemorySubscriptionPaymentStore) GetByExternalID(ctx context.Context, externalPaymentID string) (*subscriptionpayment.SubscriptionPayment, error) {
	p, found := s.Find(ctx, func(p *subscriptionpayment.SubscriptionPayment) bool {
		return p.ExternalPaymentID == externalPaymentID
	})
	if !found {
		return nil, ierr.NewError("subscription payment not found").
			WithHint("Payment not found").
			Mark(ierr.ErrNotFound)
	}
	return copyPayment(p), nil
}

func (s *InMemorySubscriptionPaymentStore) Update(ctx context.Context, p *subscriptionpayment.SubscriptionPayment) error {
	return s.InMemoryStore.Update(ctx, p.ID, copyPayment(p))
}

func (s *InMemorySubscriptionPaymentStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*subscriptionpayment.SubscriptionPayment, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(_ context.Context, p *subscriptionpayment.SubscriptionPayment, _ interface{}) bool {
			return p.SubscriptionID == subscriptionID
		},
		func(a, b *subscriptionpayment.SubscriptionPayment) bool {
			return a.DueDate.Before(b.DueDate)
		},
	)
}
