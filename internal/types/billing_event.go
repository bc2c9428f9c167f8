package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingEvent announces a committed billing change to in-process consumers
type BillingEvent struct {
	ID             string           `json:"id"`
	EventName      BillingEventName `json:"event_name"`
	SubscriptionID string           `json:"subscription_id"`
	PaymentID      string           `json:"payment_id,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

// NewBillingEvent stamps a new event with an id and the current time
func NewBillingEvent(name BillingEventName, subscriptionID, paymentID string, amount decimal.Decimal) *BillingEvent {
	return &BillingEvent{
		ID:             GenerateUUIDWithPrefix(UUID_PREFIX_BILLING_EVENT),
		EventName:      name,
		SubscriptionID: subscriptionID,
		PaymentID:      paymentID,
		Amount:         amount,
		OccurredAt:     time.Now().UTC(),
	}
}
