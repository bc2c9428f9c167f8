package service

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/shopspring/decimal"
)

// publish announces committed changes. Failures are logged and never
// surface to the caller.
func (p ServiceParams) publish(ctx context.Context, pubs ...reconcile.Publish) {
	if p.BillingPublisher == nil {
		return
	}
	for _, pub := range pubs {
		event := types.NewBillingEvent(pub.Name, pub.SubscriptionID, pub.PaymentID, pub.Amount)
		if err := p.BillingPublisher.PublishBillingEvent(ctx, event); err != nil {
			p.Logger.Warnw("billing event not published",
				"error", err,
				"event_name", pub.Name,
				"subscription_id", pub.SubscriptionID,
			)
		}
	}
}

func publication(name types.BillingEventName, subscriptionID string, amount decimal.Decimal) reconcile.Publish {
	return reconcile.Publish{
		Name:           name,
		SubscriptionID: subscriptionID,
		Amount:         amount,
	}
}
