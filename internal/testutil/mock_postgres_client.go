package testutil

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

// Snapshotter is a store whose contents can be rolled back
type Snapshotter interface {
	Snapshot() func()
}

type mockTxKey struct{}

// MockPostgresClient emulates transactions over in-memory stores: when the
// outermost fn fails every registered store is restored.
type MockPostgresClient struct {
	logger *logger.Logger
	stores []Snapshotter
}

func NewMockPostgresClient(logger *logger.Logger, stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
		stores: stores,
	}
}

func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	restores := make([]func(), 0, len(c.stores))
	for _, s := range c.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(context.WithValue(ctx, mockTxKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
