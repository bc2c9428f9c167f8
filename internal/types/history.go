package types

// HistoryEventType classifies entries of the subscription audit trail
type HistoryEventType string

const (
	HistoryEventCreated          HistoryEventType = "created"
	HistoryEventPaymentCreated   HistoryEventType = "payment_created"
	HistoryEventPaymentSucceeded HistoryEventType = "payment_succeeded"
	HistoryEventPaymentOverdue   HistoryEventType = "payment_overdue"
	HistoryEventPaymentRefunded  HistoryEventType = "payment_refunded"
	HistoryEventCancelled        HistoryEventType = "cancelled"
	HistoryEventPlanChanged      HistoryEventType = "plan_changed"
)

func (t HistoryEventType) String() string {
	return string(t)
}
