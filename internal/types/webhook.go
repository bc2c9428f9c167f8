package types

// WebhookEventType is the normalized name the reconciler dispatches on
type WebhookEventType string

const (
	WebhookEventPaymentCreated        WebhookEventType = "payment_created"
	WebhookEventPaymentConfirmed      WebhookEventType = "payment_confirmed"
	WebhookEventPaymentOverdue        WebhookEventType = "payment_overdue"
	WebhookEventPaymentRefunded       WebhookEventType = "payment_refunded"
	WebhookEventSubscriptionCancelled WebhookEventType = "subscription_cancelled"
	WebhookEventSubscriptionUpdated   WebhookEventType = "subscription_updated"
	WebhookEventUnknown               WebhookEventType = "unknown"
)

func (t WebhookEventType) String() string {
	return string(t)
}

// Event names as sent by the payment gateway
const (
	GatewayEventPaymentCreated          = "PAYMENT_CREATED"
	GatewayEventPaymentConfirmed        = "PAYMENT_CONFIRMED"
	GatewayEventPaymentReceived         = "PAYMENT_RECEIVED"
	GatewayEventPaymentOverdue          = "PAYMENT_OVERDUE"
	GatewayEventPaymentRefunded         = "PAYMENT_REFUNDED"
	GatewayEventSubscriptionDeleted     = "SUBSCRIPTION_DELETED"
	GatewayEventSubscriptionInactivated = "SUBSCRIPTION_INACTIVATED"
	GatewayEventSubscriptionUpdated     = "SUBSCRIPTION_UPDATED"
)

var gatewayEventTypes = map[string]WebhookEventType{
	GatewayEventPaymentCreated:          WebhookEventPaymentCreated,
	GatewayEventPaymentConfirmed:        WebhookEventPaymentConfirmed,
	GatewayEventPaymentReceived:         WebhookEventPaymentConfirmed,
	GatewayEventPaymentOverdue:          WebhookEventPaymentOverdue,
	GatewayEventPaymentRefunded:         WebhookEventPaymentRefunded,
	GatewayEventSubscriptionDeleted:     WebhookEventSubscriptionCancelled,
	GatewayEventSubscriptionInactivated: WebhookEventSubscriptionCancelled,
	GatewayEventSubscriptionUpdated:     WebhookEventSubscriptionUpdated,
}

// NormalizeGatewayEvent maps a gateway event name to the reconciler's
// vocabulary. Unmapped names become WebhookEventUnknown.
func NormalizeGatewayEvent(name string) WebhookEventType {
	if t, ok := gatewayEventTypes[name]; ok {
		return t
	}
	return WebhookEventUnknown
}

// BillingEventName is published on the billing topic after state changes
type BillingEventName string

const (
	BillingEventSubscriptionCreated   BillingEventName = "subscription.created"
	BillingEventSubscriptionCancelled BillingEventName = "subscription.cancelled"
	BillingEventSubscriptionUpdated   BillingEventName = "subscription.updated"
	BillingEventPaymentSucceeded      BillingEventName = "subscription.payment.succeeded"
	BillingEventPaymentOverdue        BillingEventName = "subscription.payment.overdue"
	BillingEventPaymentRefunded       BillingEventName = "subscription.payment.refunded"
)
