package testutil

import (
	"context"
	"sync"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
)

// InMemoryBillingPublisher records published billing events
type InMemoryBillingPublisher struct {
	mu     sync.Mutex
	events []*types.BillingEvent
	// Err, when set, fails every publish
	Err error
}

func NewInMemoryBillingPublisher() *InMemoryBillingPublisher {
	return &InMemoryBillingPublisher{}
}

func (p *InMemoryBillingPublisher) PublishBillingEvent(ctx context.Context, event *types.BillingEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns published events, optionally only those named name
func (p *InMemoryBillingPublisher) Events(name types.BillingEventName) []*types.BillingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "" {
		return append([]*types.BillingEvent(nil), p.events...)
	}
	var out []*types.BillingEvent
	for _, e := range p.events {
		if e.EventName == name {
			out = append(out, e)
		}
	}
	return out
}

func (p *InMemoryBillingPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
