package subscription

import "context"

// Repository defines the interface for subscription persistence
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetByExternalID(ctx context.Context, externalSubscriptionID string) (*Subscription, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	// Cancel is a conditional write: false means the row was already cancelled
	Cancel(ctx context.Context, sub *Subscription) (bool, error)
	ListByClient(ctx context.Context, clientID string) ([]*Subscription, error)
}
