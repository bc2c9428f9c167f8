package subscriptionhistory

import "context"

// Repository is append-only
type Repository interface {
	Create(ctx context.Context, entry *SubscriptionHistory) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*SubscriptionHistory, error)
}
