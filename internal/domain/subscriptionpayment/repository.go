package subscriptionpayment

import "context"

// Repository defines the interface for subscription payment persistence
type Repository interface {
	// CreateIfNotExists inserts the payment unless a row with the same
	// external payment id exists. It reports whether a row was written.
	CreateIfNotExists(ctx context.Context, payment *SubscriptionPayment) (bool, error)
	Get(ctx context.Context, id string) (*SubscriptionPayment, error)
	GetByExternalID(ctx context.Context, externalPaymentID string) (*SubscriptionPayment, error)
	Update(ctx context.Context, payment *SubscriptionPayment) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*SubscriptionPayment, error)
}
