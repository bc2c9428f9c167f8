package service

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// SyncPayments pulls every remote charge of the subscription through the
// same planners the webhooks use, so a missed delivery can be recovered
// without booking anything twice.
func (s *subscriptionService) SyncPayments(ctx context.Context, id string) (*dto.SyncPaymentsResponse, error) {
	sub, _, err := s.loadOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	externalID := sub.GetExternalID()
	if externalID == "" {
		return nil, ierr.NewError("subscription has no gateway counterpart").
			WithHint("This subscription is not linked to the payment gateway").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	// plan changes and remote cancellation first, so new charges are
	// booked against the current terms
	remoteSub, err := s.Gateway.GetSubscription(ctx, externalID)
	if err != nil {
		return nil, err
	}
	subPlan, err := s.reconcileEvent(ctx, subscriptionSyncEvent(remoteSub))
	if err != nil {
		return nil, err
	}

	remotes, err := s.Gateway.ListAllPayments(ctx, externalID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SyncPaymentsResponse{
		SubscriptionID: sub.ID,
		Fetched:        len(remotes),
	}
	for _, pub := range subPlan.Publications() {
		switch pub.Name {
		case types.BillingEventSubscriptionUpdated, types.BillingEventSubscriptionCancelled:
			resp.SubscriptionUpdated = true
		}
	}

	for i := range remotes {
		remote := remotes[i]

		ev, err := s.syncEvent(ctx, &remote)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}

		plan, err := s.reconcileEvent(ctx, *ev)
		if err != nil {
			return nil, err
		}
		tallySync(resp, plan)
	}

	s.Logger.Infow("subscription payments synced",
		"subscription_id", sub.ID,
		"fetched", resp.Fetched,
		"created", resp.Created,
		"updated", resp.Updated,
		"confirmed", resp.Confirmed,
		"subscription_updated", resp.SubscriptionUpdated,
	)
	return resp, nil
}

func subscriptionSyncEvent(remote *gateway.Subscription) reconcile.Event {
	if remote.Deleted {
		return reconcile.Event{
			Type:         types.WebhookEventSubscriptionCancelled,
			GatewayEvent: types.GatewayEventSubscriptionDeleted,
			Subscription: remote,
		}
	}
	return reconcile.Event{
		Type:         types.WebhookEventSubscriptionUpdated,
		GatewayEvent: types.GatewayEventSubscriptionUpdated,
		Subscription: remote,
	}
}

// syncEvent picks the event that brings the local row in line with the
// remote charge, nil when nothing needs to happen
func (s *subscriptionService) syncEvent(ctx context.Context, remote *gateway.Payment) (*reconcile.Event, error) {
	ev := &reconcile.Event{Payment: remote}

	_, err := s.SubPaymentRepo.GetByExternalID(ctx, remote.ID)
	switch {
	case ierr.IsNotFound(err):
		ev.Type = types.WebhookEventPaymentCreated
		ev.GatewayEvent = types.GatewayEventPaymentCreated
		return ev, nil
	case err != nil:
		return nil, err
	}

	switch gateway.PaymentStatusFromGateway(remote.Status) {
	case types.PaymentStatusPaid:
		ev.Type = types.WebhookEventPaymentConfirmed
		ev.GatewayEvent = types.GatewayEventPaymentConfirmed
	case types.PaymentStatusOverdue:
		ev.Type = types.WebhookEventPaymentOverdue
		ev.GatewayEvent = types.GatewayEventPaymentOverdue
	case types.PaymentStatusRefunded:
		ev.Type = types.WebhookEventPaymentRefunded
		ev.GatewayEvent = types.GatewayEventPaymentRefunded
	default:
		return nil, nil
	}
	return ev, nil
}

func tallySync(resp *dto.SyncPaymentsResponse, plan reconcile.Plan) {
	if _, ok := plan.Unresolved(); ok {
		resp.Unresolved++
		return
	}

	confirmed := false
	for _, pub := range plan.Publications() {
		if pub.Name == types.BillingEventPaymentSucceeded {
			confirmed = true
		}
	}

	for _, effect := range plan.Effects {
		upsert, ok := effect.(reconcile.UpsertPayment)
		if !ok {
			continue
		}
		switch {
		case upsert.Insert:
			resp.Created++
		case !confirmed:
			resp.Updated++
		}
	}
	if confirmed {
		resp.Confirmed++
	}
}
