package service

import (
	"context"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/sourcegraph/conc/pool"
)

// stored is false when the attempt could not be recorded or was skipped
// on shutdown
type sweepResult struct {
	outcome reconcile.Outcome
	stored  bool
}

// ReprocessPending re-runs unprocessed deliveries whose last attempt is
// older than the retry interval, oldest first. Deliveries that reach the
// attempt limit are left unprocessed for manual follow-up.
func (s *webhookService) ReprocessPending(ctx context.Context) (*dto.ReprocessResponse, error) {
	cfg := s.Config.Webhook.Sweep

	events, err := s.WebhookEventRepo.ListRetryable(ctx, cfg.MaxAttempts, s.retryCutoff(), cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReprocessResponse{Scanned: len(events)}
	if len(events) == 0 {
		return resp, nil
	}

	p := pool.NewWithResults[sweepResult]().WithMaxGoroutines(max(cfg.Concurrency, 1))
	for _, event := range events {
		p.Go(func() sweepResult {
			if ctx.Err() != nil {
				return sweepResult{}
			}
			outcome, err := s.replay(ctx, event, "sweep")
			if err != nil {
				return sweepResult{outcome: outcome}
			}
			s.checkExhausted(event, cfg.MaxAttempts)
			return sweepResult{outcome: outcome, stored: true}
		})
	}

	for _, r := range p.Wait() {
		switch {
		case !r.stored:
			resp.Failed++
		case r.outcome.Processed:
			resp.Processed++
		default:
			resp.Unresolved++
		}
	}

	s.Logger.Infow("webhook sweep finished",
		"scanned", resp.Scanned,
		"processed", resp.Processed,
		"unresolved", resp.Unresolved,
		"failed", resp.Failed,
	)
	return resp, ctx.Err()
}

func (s *webhookService) checkExhausted(event *webhookevent.WebhookEvent, maxAttempts int) {
	if event.Processed || event.Attempts < maxAttempts {
		return
	}
	errMsg := ""
	if event.ErrorMessage != nil {
		errMsg = *event.ErrorMessage
	}
	s.Logger.Warnw("webhook event exhausted its retries",
		"webhook_event_id", event.ID,
		"event_type", event.EventType,
		"external_event_id", event.ExternalEventID,
		"attempts", event.Attempts,
		"last_error", errMsg,
	)
	s.Sentry.AddBreadcrumb("webhook", "retries exhausted", map[string]interface{}{
		"webhook_event_id": event.ID,
		"attempts":         event.Attempts,
	})
}
