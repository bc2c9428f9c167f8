package webhookevent

import (
	"encoding/json"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// WebhookEvent is one physical delivery from the gateway, stored before
// any processing. Only the processing fields change after insert.
type WebhookEvent struct {
	ID              string          `db:"id" json:"id"`
	EventType       string          `db:"event_type" json:"event_type"`
	ExternalEventID string          `db:"external_event_id" json:"external_event_id"`
	Payload         json.RawMessage `db:"payload" json:"payload" swaggertype:"object"`
	Processed       bool            `db:"processed" json:"processed"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	ErrorMessage    *string         `db:"error_message" json:"error_message,omitempty"`
	Attempts        int             `db:"attempts" json:"attempts"`
	LastAttemptAt   *time.Time      `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	ReceivedAt      time.Time       `db:"received_at" json:"received_at"`
}

// New builds an unprocessed event for a raw delivery
func New(eventType, externalEventID string, payload []byte) *WebhookEvent {
	return &WebhookEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventType:       eventType,
		ExternalEventID: externalEventID,
		Payload:         json.RawMessage(payload),
		ReceivedAt:      time.Now().UTC(),
	}
}

// RecordAttempt stores the outcome of one reconciliation run
func (e *WebhookEvent) RecordAttempt(processed bool, errMsg string, at time.Time) {
	e.Attempts++
	e.LastAttemptAt = &at
	e.Processed = processed
	if processed {
		e.ProcessedAt = &at
	}
	if errMsg == "" {
		e.ErrorMessage = nil
	} else {
		e.ErrorMessage = &errMsg
	}
}
