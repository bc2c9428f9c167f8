package subscription

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the local record of a recurring billing agreement
type Subscription struct {
	ID                     string                   `db:"id" json:"id"`
	ClientID               string                   `db:"client_id" json:"client_id"`
	ExternalSubscriptionID *string                  `db:"external_subscription_id" json:"external_subscription_id,omitempty"`
	Cadence                types.Cadence            `db:"cadence" json:"cadence"`
	BillingCycleMonths     int                      `db:"billing_cycle_months" json:"billing_cycle_months"`
	Amount                 decimal.Decimal          `db:"amount" json:"amount" swaggertype:"string"`
	BillingDay             int                      `db:"billing_day" json:"billing_day"`
	PaymentMethod          types.PaymentMethod      `db:"payment_method" json:"payment_method"`
	Status                 types.SubscriptionStatus `db:"status" json:"status"`
	Description            string                   `db:"description" json:"description"`
	StartDate              time.Time                `db:"start_date" json:"start_date"`
	NextDueDate            time.Time                `db:"next_due_date" json:"next_due_date"`
	CancelledAt            *time.Time               `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason     *string                  `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledBy            *string                  `db:"cancelled_by" json:"cancelled_by,omitempty"`
	SyncedAt               *time.Time               `db:"synced_at" json:"synced_at,omitempty"`
	IdempotencyKey         *string                  `db:"idempotency_key" json:"-"`

	types.BaseModel
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == types.SubscriptionStatusCancelled
}

// GetExternalID returns the gateway subscription id or ""
func (s *Subscription) GetExternalID() string {
	if s.ExternalSubscriptionID == nil {
		return ""
	}
	return *s.ExternalSubscriptionID
}

// MarkCancelled sets the terminal state. Callers check IsCancelled first.
func (s *Subscription) MarkCancelled(at time.Time, reason string, by string) {
	s.Status = types.SubscriptionStatusCancelled
	s.CancelledAt = &at
	if reason != "" {
		s.CancellationReason = &reason
	}
	if by != "" {
		s.CancelledBy = &by
	}
	s.UpdatedAt = at
}
