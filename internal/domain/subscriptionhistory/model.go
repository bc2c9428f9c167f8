package subscriptionhistory

import (
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// SubscriptionHistory is an append-only audit entry
type SubscriptionHistory struct {
	ID              string                 `db:"id" json:"id"`
	SubscriptionID  string                 `db:"subscription_id" json:"subscription_id"`
	EventType       types.HistoryEventType `db:"event_type" json:"event_type"`
	Description     string                 `db:"description" json:"description"`
	ExternalEventID *string                `db:"external_event_id" json:"external_event_id,omitempty"`
	Actor           *string                `db:"actor" json:"actor,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
}
