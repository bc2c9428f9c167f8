package publisher

import (
	"encoding/json"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// AuditConsumer writes every billing event to the structured log, which is
// what the dashboard's activity feed is built from
type AuditConsumer struct {
	logger  *logger.Logger
	metrics *metrics.BillingMetrics
}

func NewAuditConsumer(log *logger.Logger, m *metrics.BillingMetrics) *AuditConsumer {
	return &AuditConsumer{logger: log, metrics: m}
}

// Handle acks malformed messages so they do not loop
func (c *AuditConsumer) Handle(msg *message.Message) error {
	var event types.BillingEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Warnw("dropping malformed billing event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}

	c.metrics.BillingEventsConsumed.WithLabelValues(string(event.EventName)).Inc()
	c.logger.Infow("billing event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID,
		"payment_id", event.PaymentID,
		"amount", event.Amount.String(),
		"occurred_at", event.OccurredAt,
	)
	return nil
}
