package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "billing"

// BillingMetrics holds the Prometheus collectors of the billing engine
type BillingMetrics struct {
	// Webhooks
	WebhookReceived   *prometheus.CounterVec
	WebhookProcessed  *prometheus.CounterVec
	WebhookUnresolved *prometheus.CounterVec
	WebhookLatency    *prometheus.HistogramVec
	WebhookReplayed   *prometheus.CounterVec

	// Subscriptions
	SubscriptionsProvisioned *prometheus.CounterVec
	SubscriptionsCancelled   *prometheus.CounterVec
	Compensations            *prometheus.CounterVec

	// Ledger
	PaymentsConfirmed     prometheus.Counter
	FinanceRecordsWritten prometheus.Counter

	// Billing events
	BillingEventsPublished *prometheus.CounterVec
	BillingEventsConsumed  *prometheus.CounterVec

	// Gateway
	GatewayRequests *prometheus.CounterVec
	GatewayLatency  *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
}

// NewBillingMetrics creates and registers all metrics on reg
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	factory := promauto.With(reg)

	return &BillingMetrics{
		WebhookReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Webhook deliveries stored, by gateway event type",
		}, []string{"event_type"}),
		WebhookProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "processed_total",
			Help:      "Reconciliation outcomes, by normalized event type and result",
		}, []string{"event_type", "result"}), // result: processed, unresolved, failed
		WebhookUnresolved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "unresolved_total",
			Help:      "Events that could not be matched to local billing state",
		}, []string{"event_type"}),
		WebhookLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent reconciling one webhook event",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		WebhookReplayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "replayed_total",
			Help:      "Events re-run by the reprocessing sweep or an operator",
		}, []string{"trigger", "result"}),

		SubscriptionsProvisioned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "provisioned_total",
			Help:      "Provisioning attempts by result",
		}, []string{"result"}),
		SubscriptionsCancelled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "cancelled_total",
			Help:      "Cancellations by source",
		}, []string{"source"}), // source: user, webhook
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "compensations_total",
			Help:      "Compensating actions run after a failed provisioning step",
		}, []string{"step", "result"}),

		PaymentsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "payments_confirmed_total",
			Help:      "Subscription payments transitioned to paid",
		}),
		FinanceRecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "finance_records_total",
			Help:      "Finance records written",
		}),

		BillingEventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Billing events published, by event name and result",
		}, []string{"event_name", "result"}),
		BillingEventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "consumed_total",
			Help:      "Billing events handled by in-process consumers",
		}, []string{"event_name"}),
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound payment gateway calls by operation and status class",
		}, []string{"operation", "status"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Outbound payment gateway call latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		}, []string{"name"}),
	}
}

// NewNoopMetrics registers on a private registry, for tests and scripts
func NewNoopMetrics() *BillingMetrics {
	return NewBillingMetrics(prometheus.NewRegistry())
}

// ObserveGatewayCall records one outbound call
func (m *BillingMetrics) ObserveGatewayCall(operation string, status string, started time.Time) {
	m.GatewayRequests.WithLabelValues(operation, status).Inc()
	m.GatewayLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
