package gateway

import (
	"encoding/json"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// WebhookEnvelope is the body the gateway posts for every event
type WebhookEnvelope struct {
	ID           string        `json:"id"`
	Event        string        `json:"event"`
	DateCreated  string        `json:"dateCreated"`
	Payment      *Payment      `json:"payment"`
	Subscription *Subscription `json:"subscription"`
}

// ParseWebhook decodes a delivery. The caller keeps the raw bytes either way.
func ParseWebhook(raw []byte) (*WebhookEnvelope, error) {
	var env WebhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// EventType is the normalized event name
func (e *WebhookEnvelope) EventType() types.WebhookEventType {
	return types.NormalizeGatewayEvent(e.Event)
}

// ExternalEventID identifies the event across redeliveries: the envelope id
// when sent, otherwise the event name joined with the affected object's id.
func (e *WebhookEnvelope) ExternalEventID() string {
	if e.ID != "" {
		return e.ID
	}
	switch {
	case e.Payment != nil && e.Payment.ID != "":
		return e.Event + ":" + e.Payment.ID
	case e.Subscription != nil && e.Subscription.ID != "":
		return e.Event + ":" + e.Subscription.ID
	default:
		return e.Event
	}
}

// PaidAt picks the settlement time of a payment: confirmed date, then
// payment date, then fallback
func (p *Payment) PaidAt(fallback time.Time) time.Time {
	for _, s := range []string{p.ConfirmedDate, p.PaymentDate, p.ClientPaymentDate} {
		if s == "" {
			continue
		}
		if t, err := types.ParseDate(s); err == nil {
			return t
		}
	}
	return fallback
}

// Due parses the due date, zero when absent or malformed
func (p *Payment) Due() time.Time {
	t, err := types.ParseDate(p.DueDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NextDue parses the subscription's next due date
func (s *Subscription) NextDue() (time.Time, bool) {
	t, err := types.ParseDate(s.NextDueDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
