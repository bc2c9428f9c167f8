package service

import (
	"context"
	"fmt"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// Cancel ends a subscription. The remote cancel is attempted first; when it
// fails the local cancellation still goes ahead and the failure is returned
// as a warning.
func (s *subscriptionService) Cancel(ctx context.Context, id string, req dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, _, err := s.loadOwnedSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.IsCancelled() {
		return nil, alreadyCancelledError(sub.ID)
	}

	var warnings []string
	if externalID := sub.GetExternalID(); externalID != "" {
		if _, err := s.Gateway.CancelSubscription(ctx, externalID); err != nil {
			s.Logger.Warnw("remote cancel failed, cancelling locally only",
				"error", err,
				"subscription_id", sub.ID,
				"external_subscription_id", externalID,
			)
			warnings = append(warnings, fmt.Sprintf("payment gateway cancellation failed: %s", gatewayMessage(err)))
		}
	}

	now := s.now()
	actor := types.GetUserID(ctx)
	sub.MarkCancelled(now, req.Reason, actor)

	description := "Subscription cancelled"
	if req.Reason != "" {
		description += ": " + req.Reason
	}

	// the gateway may have reported the cancellation while the remote call
	// was in flight, in which case that write stands
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		changed, err := s.SubRepo.Cancel(ctx, sub)
		if err != nil {
			return err
		}
		if !changed {
			return alreadyCancelledError(sub.ID)
		}
		return s.SubHistoryRepo.Create(ctx, NewHistoryEntry(ctx, sub.ID, types.HistoryEventCancelled, description, now))
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.SubscriptionsCancelled.WithLabelValues("user").Inc()
	s.Logger.Infow("subscription cancelled",
		"subscription_id", sub.ID,
		"cancelled_by", actor,
		"warnings", len(warnings),
	)
	s.publish(ctx, publication(types.BillingEventSubscriptionCancelled, sub.ID, sub.Amount))

	return &dto.CancelSubscriptionResponse{
		SubscriptionID: sub.ID,
		Status:         sub.Status,
		CancelledAt:    now,
		Warnings:       warnings,
	}, nil
}

func alreadyCancelledError(subscriptionID string) error {
	return ierr.NewError("subscription already cancelled").
		WithHint("This subscription is already cancelled").
		WithReportableDetails(map[string]any{
			"subscription_id": subscriptionID,
		}).
		Mark(ierr.ErrConflict)
}

// gatewayMessage is the message the gateway gave, or the error text
func gatewayMessage(err error) string {
	if gwErr, ok := gateway.AsError(err); ok && gwErr.Message != "" {
		return gwErr.Message
	}
	return err.Error()
}
