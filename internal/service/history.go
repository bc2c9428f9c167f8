package service

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
)

// HistoryService reads the append-only subscription audit trail. Entries are
// written by the operations that change a subscription.
type HistoryService interface {
	ListHistory(ctx context.Context, subscriptionID string) (*dto.ListSubscriptionHistoryResponse, error)
}

type historyService struct {
	ServiceParams
}

func NewHistoryService(params ServiceParams) HistoryService {
	return &historyService{
		ServiceParams: params,
	}
}

// NewHistoryEntry builds an entry whose actor is the user in ctx, or the
// system actor when there is none
func NewHistoryEntry(ctx context.Context, subscriptionID string, eventType types.HistoryEventType, description string, now time.Time) *subscriptionhistory.SubscriptionHistory {
	actor := types.GetUserID(ctx)
	if actor == "" {
		actor = types.SystemUserID
	}
	return &subscriptionhistory.SubscriptionHistory{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_HISTORY),
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		Description:    description,
		Actor:          lo.ToPtr(actor),
		CreatedAt:      now,
	}
}

func (s *historyService) ListHistory(ctx context.Context, subscriptionID string) (*dto.ListSubscriptionHistoryResponse, error) {
	// 404 for unknown subscriptions rather than an empty list
	if _, _, err := s.loadOwnedSubscription(ctx, subscriptionID); err != nil {
		return nil, err
	}

	entries, err := s.SubHistoryRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	items := lo.Map(entries, func(e *subscriptionhistory.SubscriptionHistory, _ int) *dto.SubscriptionHistoryResponse {
		return &dto.SubscriptionHistoryResponse{SubscriptionHistory: e}
	})
	resp := types.NewListResponse(items, len(items), len(items), 0)
	return &resp, nil
}
