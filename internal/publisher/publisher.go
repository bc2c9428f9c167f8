package publisher

import (
	"context"
	"encoding/json"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/pubsub"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/ThreeDotsLabs/watermill/message"
)

// BillingPublisher publishes committed billing changes
type BillingPublisher interface {
	PublishBillingEvent(ctx context.Context, event *types.BillingEvent) error
}

type billingPublisher struct {
	pubSub  pubsub.Publisher
	topic   string
	logger  *logger.Logger
	metrics *metrics.BillingMetrics
}

func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	log *logger.Logger,
	m *metrics.BillingMetrics,
) BillingPublisher {
	return &billingPublisher{
		pubSub:  pubSub,
		topic:   cfg.Webhook.Topic,
		logger:  log,
		metrics: m,
	}
}

func (p *billingPublisher) PublishBillingEvent(ctx context.Context, event *types.BillingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_name", string(event.EventName))
	msg.Metadata.Set("subscription_id", event.SubscriptionID)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.metrics.BillingEventsPublished.WithLabelValues(string(event.EventName), "failed").Inc()
		p.logger.Errorw("failed to publish billing event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"subscription_id", event.SubscriptionID,
		)
		return err
	}

	p.metrics.BillingEventsPublished.WithLabelValues(string(event.EventName), "ok").Inc()
	p.logger.Debugw("published billing event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"subscription_id", event.SubscriptionID,
		"topic", p.topic,
	)
	return nil
}
