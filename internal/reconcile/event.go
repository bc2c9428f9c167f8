package reconcile

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Event is a normalized gateway delivery
type Event struct {
	Type            types.WebhookEventType
	GatewayEvent    string
	ExternalEventID string
	Payment         *gateway.Payment
	Subscription    *gateway.Subscription
}

// EventFromEnvelope normalizes a parsed delivery
func EventFromEnvelope(env *gateway.WebhookEnvelope) Event {
	return Event{
		Type:            env.EventType(),
		GatewayEvent:    env.Event,
		ExternalEventID: env.ExternalEventID(),
		Payment:         env.Payment,
		Subscription:    env.Subscription,
	}
}

// ExternalSubscriptionID is the gateway subscription the event belongs to
func (e Event) ExternalSubscriptionID() string {
	if e.Subscription != nil && e.Subscription.ID != "" {
		return e.Subscription.ID
	}
	if e.Payment != nil {
		return e.Payment.Subscription
	}
	return ""
}

// ExternalPaymentID is the gateway payment the event refers to, if any
func (e Event) ExternalPaymentID() string {
	if e.Payment == nil {
		return ""
	}
	return e.Payment.ID
}

// State is the local data a planner decides on. Nil fields were not found.
type State struct {
	Payment      *subscriptionpayment.SubscriptionPayment
	Subscription *subscription.Subscription
	// FinanceRecordExists is set when a ledger entry with the payment's
	// description and amount is already recorded
	FinanceRecordExists bool
}
