package service

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscription"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// authorizeClient checks that the caller may manage the client's billing.
// Service-to-service callers act as the system user and skip the check.
func (p ServiceParams) authorizeClient(ctx context.Context, c *client.Client) error {
	userID := types.GetUserID(ctx)
	if userID == types.SystemUserID || c.OwnedBy(userID) {
		return nil
	}
	return ierr.NewError("client belongs to another user").
		WithHint("You do not have permission to manage billing for this client").
		WithReportableDetails(map[string]any{
			"client_id": c.ID,
		}).
		Mark(ierr.ErrPermissionDenied)
}

func (p ServiceParams) loadOwnedClient(ctx context.Context, clientID string) (*client.Client, error) {
	c, err := p.ClientRepo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := p.authorizeClient(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (p ServiceParams) loadOwnedSubscription(ctx context.Context, subscriptionID string) (*subscription.Subscription, *client.Client, error) {
	sub, err := p.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}
	c, err := p.loadOwnedClient(ctx, sub.ClientID)
	if err != nil {
		return nil, nil, err
	}
	return sub, c, nil
}
