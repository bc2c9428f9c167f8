package dto

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// WebhookIngestResponse is always returned with 200 once the delivery is
// stored
type WebhookIngestResponse struct {
	Success   bool   `json:"success"`
	Processed bool   `json:"processed"`
	EventID   string `json:"event_id,omitempty"`
}

type WebhookEventResponse struct {
	*webhookevent.WebhookEvent
}

type ListWebhookEventsResponse = types.ListResponse[*WebhookEventResponse]

// ReprocessResponse summarizes one sweep over unprocessed deliveries
type ReprocessResponse struct {
	Scanned    int `json:"scanned"`
	Processed  int `json:"processed"`
	Unresolved int `json:"unresolved"`
	Failed     int `json:"failed"`
}
