package financerecord

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for finance record persistence
type Repository interface {
	// CreateIfNotExists inserts the record unless its reference key exists.
	// It reports whether a row was written.
	CreateIfNotExists(ctx context.Context, record *FinanceRecord) (bool, error)
	ExistsByDescriptionAndAmount(ctx context.Context, clientID string, description string, amount decimal.Decimal) (bool, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*FinanceRecord, error)
}
