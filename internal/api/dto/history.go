package dto

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/subscriptionhistory"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

type SubscriptionHistoryResponse struct {
	*subscriptionhistory.SubscriptionHistory
}

type ListSubscriptionHistoryResponse = types.ListResponse[*SubscriptionHistoryResponse]
