package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/idempotency"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// GatewayActor is recorded as the actor of changes driven by gateway events
const GatewayActor = "gateway"

var keys = idempotency.NewGenerator()

// status precedence; events never move a payment backwards
var paymentRank = map[types.PaymentStatus]int{
	types.PaymentStatusPending:  0,
	types.PaymentStatusOverdue:  1,
	types.PaymentStatusPaid:     2,
	types.PaymentStatusRefunded: 3,
}

// FinanceDescription is the ledger description of a paid gateway payment
func FinanceDescription(externalPaymentID string) string {
	return "Subscription payment " + externalPaymentID
}

// PaymentAmount is the amount to book for a payment: the event value, then
// the local payment, then the subscription amount
func PaymentAmount(state State, ev Event) decimal.Decimal {
	if ev.Payment != nil && !ev.Payment.Value.IsZero() {
		return ev.Payment.Value
	}
	if state.Payment != nil && !state.Payment.Amount.IsZero() {
		return state.Payment.Amount
	}
	if state.Subscription != nil {
		return state.Subscription.Amount
	}
	return decimal.Zero
}

// PlanEvent dispatches on the event type
func PlanEvent(state State, ev Event, now time.Time) Plan {
	switch ev.Type {
	case types.WebhookEventPaymentCreated:
		return PlanPaymentCreated(state, ev, now)
	case types.WebhookEventPaymentConfirmed:
		return PlanPaymentConfirmed(state, ev, now)
	case types.WebhookEventPaymentOverdue:
		return PlanPaymentOverdue(state, ev, now)
	case types.WebhookEventPaymentRefunded:
		return PlanPaymentRefunded(state, ev, now)
	case types.WebhookEventSubscriptionCancelled:
		return PlanSubscriptionCancelled(state, ev, now)
	case types.WebhookEventSubscriptionUpdated:
		return PlanSubscriptionUpdated(state, ev, now)
	default:
		return noop(fmt.Sprintf("event %q is not handled", ev.GatewayEvent))
	}
}

// PlanPaymentCreated records a pending charge announced by the gateway
func PlanPaymentCreated(state State, ev Event, now time.Time) Plan {
	if ev.Payment == nil || ev.Payment.ID == "" {
		return noop("payment missing from payload")
	}
	if state.Payment != nil {
		return noop("payment already recorded")
	}
	if state.Subscription == nil {
		return noop("payment does not belong to a local subscription")
	}

	payment := newPayment(state.Subscription, ev.Payment, PaymentAmount(state, ev), now)
	payment.Status = gateway.PaymentStatusFromGateway(ev.Payment.Status)
	if payment.Status == types.PaymentStatusPaid {
		// paid charges go through confirmation so the ledger is written
		return PlanPaymentConfirmed(state, ev, now)
	}

	var plan Plan
	plan.add(
		UpsertPayment{Payment: payment, Insert: true},
		AppendHistory{Entry: history(state.Subscription.ID, types.HistoryEventPaymentCreated,
			fmt.Sprintf("Charge %s of %s due %s created", ev.Payment.ID, payment.Amount.StringFixed(2), types.FormatDate(payment.DueDate)),
			ev.ExternalEventID, now)},
	)
	return plan
}

// PlanPaymentConfirmed marks a charge as paid and books it in the ledger.
// When the charge is unknown locally it is synthesized from the event,
// provided the owning subscription exists.
func PlanPaymentConfirmed(state State, ev Event, now time.Time) Plan {
	if ev.Payment == nil || ev.Payment.ID == "" {
		return unresolved("payment missing from payload")
	}
	if state.Subscription == nil {
		return unresolved(fmt.Sprintf("no local subscription for gateway subscription %q", ev.ExternalSubscriptionID()))
	}

	sub := state.Subscription
	amount := PaymentAmount(state, ev)
	paidAt := ev.Payment.PaidAt(now)

	var plan Plan
	var payment *subscriptionpayment.SubscriptionPayment
	transitioned := false

	if state.Payment != nil {
		p := *state.Payment
		payment = &p
		if paymentRank[p.Status] < paymentRank[types.PaymentStatusPaid] {
			payment.Status = types.PaymentStatusPaid
			payment.PaidAt = &paidAt
			if payment.Amount.IsZero() {
				payment.Amount = amount
			}
			setInvoice(payment, ev.Payment)
			payment.UpdatedAt = now
			plan.add(UpsertPayment{Payment: payment})
			transitioned = true
		}
	} else {
		payment = newPayment(sub, ev.Payment, amount, now)
		payment.Status = types.PaymentStatusPaid
		payment.PaidAt = &paidAt
		plan.add(UpsertPayment{Payment: payment, Insert: true})
		transitioned = true
	}

	// a refunded charge is never booked again
	if !state.FinanceRecordExists && payment.Status == types.PaymentStatusPaid {
		plan.add(CreateFinanceRecord{Record: &financerecord.FinanceRecord{
			ID:                    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FINANCE_RECORD),
			ClientID:              sub.ClientID,
			SubscriptionID:        lo.ToPtr(sub.ID),
			SubscriptionPaymentID: lo.ToPtr(payment.ID),
			Type:                  types.FinanceRecordTypeIncome,
			Category:              types.FinanceCategorySubscription,
			Description:           FinanceDescription(ev.Payment.ID),
			Amount:                amount,
			OccurredOn:            paidAt,
			ReferenceKey:          keys.FinanceRecordKey(ev.Payment.ID),
			CreatedAt:             now,
		}})
	}

	if transitioned {
		plan.add(
			AppendHistory{Entry: history(sub.ID, types.HistoryEventPaymentSucceeded,
				fmt.Sprintf("Payment %s of %s confirmed", ev.Payment.ID, amount.StringFixed(2)),
				ev.ExternalEventID, now)},
			Publish{
				Name:           types.BillingEventPaymentSucceeded,
				SubscriptionID: sub.ID,
				PaymentID:      payment.ID,
				Amount:         amount,
			},
		)
	}

	if plan.IsNoop() {
		plan.Note = "payment already confirmed"
	}
	return plan
}

// PlanPaymentOverdue flags a pending charge. Unknown charges are ignored.
func PlanPaymentOverdue(state State, ev Event, now time.Time) Plan {
	if state.Payment == nil {
		return noop("payment not tracked locally")
	}
	if state.Payment.Status != types.PaymentStatusPending {
		return noop(fmt.Sprintf("payment is %s", state.Payment.Status))
	}

	p := *state.Payment
	p.Status = types.PaymentStatusOverdue
	p.UpdatedAt = now

	var plan Plan
	plan.add(
		UpsertPayment{Payment: &p},
		AppendHistory{Entry: history(p.SubscriptionID, types.HistoryEventPaymentOverdue,
			fmt.Sprintf("Payment %s is overdue since %s", p.ExternalPaymentID, types.FormatDate(p.DueDate)),
			ev.ExternalEventID, now)},
		Publish{
			Name:           types.BillingEventPaymentOverdue,
			SubscriptionID: p.SubscriptionID,
			PaymentID:      p.ID,
			Amount:         p.Amount,
		},
	)
	return plan
}

// PlanPaymentRefunded flags a refunded charge. Unknown charges are ignored.
func PlanPaymentRefunded(state State, ev Event, now time.Time) Plan {
	if state.Payment == nil {
		return noop("payment not tracked locally")
	}
	if state.Payment.Status == types.PaymentStatusRefunded {
		return noop("payment already refunded")
	}

	p := *state.Payment
	p.Status = types.PaymentStatusRefunded
	p.UpdatedAt = now

	var plan Plan
	plan.add(
		UpsertPayment{Payment: &p},
		AppendHistory{Entry: history(p.SubscriptionID, types.HistoryEventPaymentRefunded,
			fmt.Sprintf("Payment %s of %s refunded", p.ExternalPaymentID, p.Amount.StringFixed(2)),
			ev.ExternalEventID, now)},
		Publish{
			Name:           types.BillingEventPaymentRefunded,
			SubscriptionID: p.SubscriptionID,
			PaymentID:      p.ID,
			Amount:         p.Amount,
		},
	)
	return plan
}

// PlanSubscriptionCancelled mirrors a cancellation done on the gateway side
func PlanSubscriptionCancelled(state State, ev Event, now time.Time) Plan {
	if state.Subscription == nil {
		return unresolved(fmt.Sprintf("no local subscription for gateway subscription %q", ev.ExternalSubscriptionID()))
	}
	if state.Subscription.IsCancelled() {
		return noop("subscription already cancelled")
	}

	sub := *state.Subscription
	sub.MarkCancelled(now, "Cancelled at payment gateway", GatewayActor)

	var plan Plan
	plan.add(
		CancelSubscription{Subscription: &sub},
		AppendHistory{Entry: history(sub.ID, types.HistoryEventCancelled,
			"Subscription cancelled at payment gateway", ev.ExternalEventID, now)},
		Publish{
			Name:           types.BillingEventSubscriptionCancelled,
			SubscriptionID: sub.ID,
			Amount:         sub.Amount,
		},
	)
	return plan
}

// PlanSubscriptionUpdated resyncs amount, cadence and next due date from the
// gateway copy
func PlanSubscriptionUpdated(state State, ev Event, now time.Time) Plan {
	if state.Subscription == nil {
		return unresolved(fmt.Sprintf("no local subscription for gateway subscription %q", ev.ExternalSubscriptionID()))
	}
	if ev.Subscription == nil {
		return unresolved("subscription missing from payload")
	}
	if ev.Subscription.Deleted {
		return PlanSubscriptionCancelled(state, ev, now)
	}
	if state.Subscription.IsCancelled() {
		return noop("subscription is cancelled locally")
	}

	sub := *state.Subscription
	remote := ev.Subscription
	var changes []string

	if !remote.Value.IsZero() && !remote.Value.Equal(sub.Amount) {
		changes = append(changes, fmt.Sprintf("amount %s -> %s", sub.Amount.StringFixed(2), remote.Value.StringFixed(2)))
		sub.Amount = remote.Value
	}
	if remote.Cycle != "" {
		cadence := gateway.CadenceFromCycle(remote.Cycle)
		if cadence != sub.Cadence {
			changes = append(changes, fmt.Sprintf("cadence %s -> %s", sub.Cadence, cadence))
			sub.Cadence = cadence
			sub.BillingCycleMonths = cadence.Months()
		}
	}
	if remote.BillingType != "" {
		method := gateway.PaymentMethodFromBillingType(remote.BillingType)
		if method != sub.PaymentMethod {
			changes = append(changes, fmt.Sprintf("payment method %s -> %s", sub.PaymentMethod, method))
			sub.PaymentMethod = method
		}
	}
	if due, ok := remote.NextDue(); ok {
		sub.NextDueDate = due
	}
	sub.SyncedAt = &now
	sub.UpdatedAt = now

	var plan Plan
	plan.add(UpdateSubscription{Subscription: &sub})
	if len(changes) > 0 {
		plan.add(
			AppendHistory{Entry: history(sub.ID, types.HistoryEventPlanChanged,
				"Plan changed at payment gateway: "+strings.Join(changes, ", "), ev.ExternalEventID, now)},
			Publish{
				Name:           types.BillingEventSubscriptionUpdated,
				SubscriptionID: sub.ID,
				Amount:         sub.Amount,
			},
		)
	}
	return plan
}

func newPayment(sub *subscription.Subscription, remote *gateway.Payment, amount decimal.Decimal, now time.Time) *subscriptionpayment.SubscriptionPayment {
	due := remote.Due()
	if due.IsZero() {
		due = sub.NextDueDate
	}
	months := sub.BillingCycleMonths
	if months <= 0 {
		months = sub.Cadence.Months()
	}
	periodEnd := types.AddClampedDate(due, 0, months, 0).AddDate(0, 0, -1)

	method := sub.PaymentMethod
	if remote.BillingType != "" {
		method = gateway.PaymentMethodFromBillingType(remote.BillingType)
	}

	p := &subscriptionpayment.SubscriptionPayment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_PAYMENT),
		SubscriptionID:    sub.ID,
		ExternalPaymentID: remote.ID,
		Amount:            amount,
		DueDate:           due,
		Status:            types.PaymentStatusPending,
		PeriodStart:       lo.ToPtr(due),
		PeriodEnd:         lo.ToPtr(periodEnd),
		PaymentMethod:     method,
		BaseModel: types.BaseModel{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	setInvoice(p, remote)
	return p
}

func setInvoice(p *subscriptionpayment.SubscriptionPayment, remote *gateway.Payment) {
	if remote.InvoiceURL != "" {
		p.InvoiceURL = lo.ToPtr(remote.InvoiceURL)
	}
	if remote.InvoiceNumber != "" {
		p.InvoiceNumber = lo.ToPtr(remote.InvoiceNumber)
	}
}

func history(subscriptionID string, eventType types.HistoryEventType, description, externalEventID string, now time.Time) *subscriptionhistory.SubscriptionHistory {
	return &subscriptionhistory.SubscriptionHistory{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_HISTORY),
		SubscriptionID:  subscriptionID,
		EventType:       eventType,
		Description:     description,
		ExternalEventID: lo.EmptyableToPtr(externalEventID),
		Actor:           lo.ToPtr(GatewayActor),
		CreatedAt:       now,
	}
}
