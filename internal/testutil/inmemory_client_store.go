package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/samber/lo"
)

// InMemoryClientStore implements client.Repository
type InMemoryClientStore struct {
	*InMemoryStore[*client.Client]
}

func NewInMemoryClientStore() *InMemoryClientStore {
	return &InMemoryClientStore{
		InMemoryStore: NewInMemoryStore[*client.Client](),
	}
}

func copyClient(c *client.Client) *client.Client {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// Seed stores a client fixture
func (s *InMemoryClientStore) Seed(ctx context.Context, c *client.Client) error {
	return s.InMemoryStore.Create(ctx, c.ID, copyClient(c))
}

func (s *InMemoryClientStore) Get(ctx context.Context, id string) (*client.Client, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyClient(c), nil
}

func (s *InMemoryClientStore) SetExternalCustomerID(ctx context.Context, id string, externalCustomerID string) error {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	updated := copyClient(c)
	updated.ExternalCustomerID = lo.ToPtr(externalCustomerID)
	return s.InMemoryStore.Update(ctx, id, updated)
}
