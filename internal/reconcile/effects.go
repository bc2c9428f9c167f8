package reconcile

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/financerecord"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionpayment"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// Effect is one state change a plan asks the applier to make
type Effect interface {
	effect()
}

// UpsertPayment inserts the payment when Insert is set, updates it otherwise
type UpsertPayment struct {
	Payment *subscriptionpayment.SubscriptionPayment
	Insert  bool
}

// CreateFinanceRecord writes a ledger entry unless its reference key exists
type CreateFinanceRecord struct {
	Record *financerecord.FinanceRecord
}

type UpdateSubscription struct {
	Subscription *subscription.Subscription
}

// CancelSubscription writes the cancellation only if the row is not already
// cancelled. Losing that race fails the plan so it can be made again.
type CancelSubscription struct {
	Subscription *subscription.Subscription
}

type AppendHistory struct {
	Entry *subscriptionhistory.SubscriptionHistory
}

// Publish announces a billing change once the plan is committed
type Publish struct {
	Name           types.BillingEventName
	SubscriptionID string
	PaymentID      string
	Amount         decimal.Decimal
}

// Unresolved means the event refers to state that does not exist locally
// yet. The delivery stays unprocessed so it can be replayed.
type Unresolved struct {
	Reason string
}

func (UpsertPayment) effect()       {}
func (CreateFinanceRecord) effect() {}
func (UpdateSubscription) effect()  {}
func (CancelSubscription) effect()  {}
func (AppendHistory) effect()       {}
func (Publish) effect()             {}
func (Unresolved) effect()          {}

// Plan is the ordered list of effects for one event. An empty plan is a
// processed no-op.
type Plan struct {
	Effects []Effect
	// Note explains a no-op, for logs
	Note string
}

func (p *Plan) add(effects ...Effect) {
	p.Effects = append(p.Effects, effects...)
}

// Unresolved returns the reason when the plan could not resolve the event
func (p Plan) Unresolved() (string, bool) {
	for _, e := range p.Effects {
		if u, ok := e.(Unresolved); ok {
			return u.Reason, true
		}
	}
	return "", false
}

// IsNoop reports whether the plan changes nothing
func (p Plan) IsNoop() bool {
	return len(p.Effects) == 0
}

// Publications lists the billing events to emit after commit
func (p Plan) Publications() []Publish {
	var out []Publish
	for _, e := range p.Effects {
		if pub, ok := e.(Publish); ok {
			out = append(out, pub)
		}
	}
	return out
}

// Outcome is the processing result stored on the webhook event
type Outcome struct {
	Processed bool
	Error     string
}

// Outcome derives the stored result of a plan that was applied
func (p Plan) Outcome() Outcome {
	if reason, ok := p.Unresolved(); ok {
		return Outcome{Processed: false, Error: reason}
	}
	return Outcome{Processed: true}
}

func unresolved(reason string) Plan {
	return Plan{Effects: []Effect{Unresolved{Reason: reason}}}
}

func noop(note string) Plan {
	return Plan{Note: note}
}
