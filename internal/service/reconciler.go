package service

import (
	"context"
	"time"

	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Reconciler applies normalized gateway events to local billing state
type Reconciler interface {
	// Reconcile never returns an error: failures are reported in the outcome
	// so the delivery can be stored as unprocessed and replayed
	Reconcile(ctx context.Context, ev reconcile.Event) reconcile.Outcome
}

type reconciler struct {
	ServiceParams
}

func NewReconciler(params ServiceParams) Reconciler {
	return &reconciler{
		ServiceParams: params,
	}
}

func (r *reconciler) Reconcile(ctx context.Context, ev reconcile.Event) reconcile.Outcome {
	started := time.Now()
	defer func() {
		r.Metrics.WebhookLatency.WithLabelValues(ev.Type.String()).Observe(time.Since(started).Seconds())
	}()

	log := r.Logger.With(
		"event_type", ev.Type,
		"gateway_event", ev.GatewayEvent,
		"external_event_id", ev.ExternalEventID,
		"external_payment_id", ev.ExternalPaymentID(),
		"external_subscription_id", ev.ExternalSubscriptionID(),
	)

	if err := r.completePayload(ctx, &ev); err != nil {
		// booking without the charged value would guess the amount
		r.Metrics.WebhookProcessed.WithLabelValues(ev.Type.String(), "failed").Inc()
		log.Warnw("thin webhook payload could not be completed", "error", err)
		return reconcile.Outcome{Processed: false, Error: "payment payload incomplete: " + err.Error()}
	}

	plan, err := r.reconcileEvent(ctx, ev)
	if err != nil {
		r.Metrics.WebhookProcessed.WithLabelValues(ev.Type.String(), "failed").Inc()
		log.Errorw("failed to reconcile webhook event", "error", err)
		r.Sentry.CaptureExceptionWithTags(err, map[string]string{
			"event_type":        ev.Type.String(),
			"external_event_id": ev.ExternalEventID,
		})
		return reconcile.Outcome{Processed: false, Error: err.Error()}
	}

	if reason, ok := plan.Unresolved(); ok {
		r.Metrics.WebhookProcessed.WithLabelValues(ev.Type.String(), "unresolved").Inc()
		r.Metrics.WebhookUnresolved.WithLabelValues(ev.Type.String()).Inc()
		log.Warnw("webhook event could not be resolved", "reason", reason)
		r.Sentry.AddBreadcrumb("webhook", "unresolved event", map[string]interface{}{
			"event_type":        ev.Type.String(),
			"external_event_id": ev.ExternalEventID,
			"reason":            reason,
		})
		return plan.Outcome()
	}

	r.Metrics.WebhookProcessed.WithLabelValues(ev.Type.String(), "processed").Inc()
	if plan.IsNoop() {
		log.Infow("webhook event required no changes", "note", plan.Note)
	} else {
		log.Infow("webhook event reconciled", "effects", len(plan.Effects))
	}
	return plan.Outcome()
}

// completePayload fetches the full payment when the delivery only carries
// its id
func (r *reconciler) completePayload(ctx context.Context, ev *reconcile.Event) error {
	if ev.Type == types.WebhookEventUnknown || ev.Payment == nil || ev.Payment.ID == "" || !ev.Payment.Value.IsZero() {
		return nil
	}

	full, err := r.Gateway.GetPayment(ctx, ev.Payment.ID)
	if err != nil {
		return err
	}
	if full.Subscription == "" {
		full.Subscription = ev.Payment.Subscription
	}
	ev.Payment = full
	return nil
}

// reconcileEvent loads state, plans and applies one event in a single
// transaction, then publishes what the plan announced. An insert that lost
// a race against a concurrent delivery is planned once more against the
// state that won. A cancellation that lost to another writer is handled
// the same way.
func (p ServiceParams) reconcileEvent(ctx context.Context, ev reconcile.Event) (reconcile.Plan, error) {
	plan, err := p.applyEvent(ctx, ev)
	if err != nil && (ierr.IsAlreadyExists(err) || ierr.IsConflict(err)) {
		p.Logger.Infow("concurrent write detected, replanning",
			"external_payment_id", ev.ExternalPaymentID(),
			"event_type", ev.Type,
		)
		plan, err = p.applyEvent(ctx, ev)
	}
	if err != nil {
		return reconcile.Plan{}, err
	}

	for _, pub := range plan.Publications() {
		switch pub.Name {
		case types.BillingEventPaymentSucceeded:
			p.Metrics.PaymentsConfirmed.Inc()
		case types.BillingEventSubscriptionCancelled:
			p.Metrics.SubscriptionsCancelled.WithLabelValues("webhook").Inc()
		}
	}
	p.publish(ctx, plan.Publications()...)
	return plan, nil
}

func (p ServiceParams) applyEvent(ctx context.Context, ev reconcile.Event) (reconcile.Plan, error) {
	var plan reconcile.Plan
	written := 0

	err := p.DB.WithTx(ctx, func(ctx context.Context) error {
		state, err := p.loadState(ctx, ev)
		if err != nil {
			return err
		}

		plan = reconcile.PlanEvent(state, ev, p.now())
		written, err = p.applyPlan(ctx, plan)
		return err
	})
	if err != nil {
		return reconcile.Plan{}, err
	}

	if written > 0 {
		p.Metrics.FinanceRecordsWritten.Add(float64(written))
	}
	return plan, nil
}

// loadState reads everything a planner may decide on
func (p ServiceParams) loadState(ctx context.Context, ev reconcile.Event) (reconcile.State, error) {
	var state reconcile.State

	if extPaymentID := ev.ExternalPaymentID(); extPaymentID != "" {
		payment, err := p.SubPaymentRepo.GetByExternalID(ctx, extPaymentID)
		switch {
		case err == nil:
			state.Payment = payment
		case !ierr.IsNotFound(err):
			return state, err
		}
	}

	if state.Payment != nil {
		sub, err := p.SubRepo.Get(ctx, state.Payment.SubscriptionID)
		switch {
		case err == nil:
			state.Subscription = sub
		case !ierr.IsNotFound(err):
			return state, err
		}
	} else if extSubID := ev.ExternalSubscriptionID(); extSubID != "" {
		sub, err := p.SubRepo.GetByExternalID(ctx, extSubID)
		switch {
		case err == nil:
			state.Subscription = sub
		case !ierr.IsNotFound(err):
			return state, err
		}
	}

	if state.Subscription != nil && ev.Payment != nil && ev.Payment.ID != "" {
		exists, err := p.FinanceRecordRepo.ExistsByDescriptionAndAmount(ctx,
			state.Subscription.ClientID,
			reconcile.FinanceDescription(ev.Payment.ID),
			reconcile.PaymentAmount(state, ev),
		)
		if err != nil {
			return state, err
		}
		state.FinanceRecordExists = exists
	}

	return state, nil
}

// applyPlan runs the effects in order and reports how many finance records
// were written. Must be called inside a transaction.
func (p ServiceParams) applyPlan(ctx context.Context, plan reconcile.Plan) (int, error) {
	written := 0
	for _, effect := range plan.Effects {
		switch e := effect.(type) {
		case reconcile.UpsertPayment:
			if !e.Insert {
				if err := p.SubPaymentRepo.Update(ctx, e.Payment); err != nil {
					return 0, err
				}
				continue
			}
			created, err := p.SubPaymentRepo.CreateIfNotExists(ctx, e.Payment)
			if err != nil {
				return 0, err
			}
			if !created {
				return 0, ierr.NewError("payment inserted concurrently").
					WithHint("The payment was recorded by another delivery").
					WithReportableDetails(map[string]any{
						"external_payment_id": e.Payment.ExternalPaymentID,
					}).
					Mark(ierr.ErrAlreadyExists)
			}

		case reconcile.CreateFinanceRecord:
			created, err := p.FinanceRecordRepo.CreateIfNotExists(ctx, e.Record)
			if err != nil {
				return 0, err
			}
			if created {
				written++
			} else {
				p.Logger.Debugw("finance record already booked", "reference_key", e.Record.ReferenceKey)
			}

		case reconcile.UpdateSubscription:
			if err := p.SubRepo.Update(ctx, e.Subscription); err != nil {
				return 0, err
			}

		case reconcile.CancelSubscription:
			changed, err := p.SubRepo.Cancel(ctx, e.Subscription)
			if err != nil {
				return 0, err
			}
			if !changed {
				return 0, ierr.NewError("subscription cancelled concurrently").
					WithHint("The subscription was cancelled by another request").
					WithReportableDetails(map[string]any{
						"subscription_id": e.Subscription.ID,
					}).
					Mark(ierr.ErrConflict)
			}

		case reconcile.AppendHistory:
			if err := p.SubHistoryRepo.Create(ctx, e.Entry); err != nil {
				return 0, err
			}

		case reconcile.Publish, reconcile.Unresolved:
			// handled by the caller
		}
	}
	return written, nil
}
