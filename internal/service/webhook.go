package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/api/dto"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/webhookevent"
	ierr "github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/errors"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/integration/gateway"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/reconcile"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
)

// WebhookService owns the raw delivery log and drives reconciliation
type WebhookService interface {
	// Ingest stores the delivery and reconciles it. The only error is a
	// failure to store the raw event.
	Ingest(ctx context.Context, raw []byte) (*dto.WebhookIngestResponse, error)
	ListEvents(ctx context.Context, filter *types.WebhookEventFilter) (*dto.ListWebhookEventsResponse, error)
	GetEvent(ctx context.Context, id string) (*dto.WebhookEventResponse, error)
	// Replay re-runs reconciliation of one stored delivery
	Replay(ctx context.Context, id string) (*dto.WebhookEventResponse, error)
	// ReprocessPending sweeps unprocessed deliveries that are due a retry
	ReprocessPending(ctx context.Context) (*dto.ReprocessResponse, error)
}

type webhookService struct {
	ServiceParams
	reconciler Reconciler
}

func NewWebhookService(params ServiceParams) WebhookService {
	return &webhookService{
		ServiceParams: params,
		reconciler:    NewReconciler(params),
	}
}

func (s *webhookService) Ingest(ctx context.Context, raw []byte) (*dto.WebhookIngestResponse, error) {
	env, parseErr := gateway.ParseWebhook(raw)

	var event *webhookevent.WebhookEvent
	if parseErr != nil {
		// kept as a JSON string so the payload column stays valid JSON
		quoted, _ := json.Marshal(string(raw))
		event = webhookevent.New(types.WebhookEventUnknown.String(), "", quoted)
		s.Logger.Warnw("unparseable webhook payload stored",
			"error", parseErr,
			"webhook_event_id", event.ID,
			"size", len(raw),
		)
	} else {
		event = webhookevent.New(env.Event, env.ExternalEventID(), raw)
	}

	if err := s.WebhookEventRepo.Create(ctx, event); err != nil {
		s.Logger.Errorw("failed to store webhook event",
			"error", err,
			"event_type", event.EventType,
			"external_event_id", event.ExternalEventID,
		)
		s.Sentry.CaptureException(err)
		return nil, err
	}
	s.Metrics.WebhookReceived.WithLabelValues(event.EventType).Inc()

	var ev reconcile.Event
	if parseErr == nil {
		ev = reconcile.EventFromEnvelope(env)
	} else {
		ev = reconcile.Event{Type: types.WebhookEventUnknown}
	}

	// an unrecorded outcome leaves the row due for the sweep, so the
	// delivery is still acknowledged
	outcome, _ := s.process(ctx, event, ev)

	return &dto.WebhookIngestResponse{
		Success:   true,
		Processed: outcome.Processed,
		EventID:   event.ID,
	}, nil
}

// process reconciles a stored delivery and records the attempt on its row.
// The error reports a failure to record the attempt.
func (s *webhookService) process(ctx context.Context, event *webhookevent.WebhookEvent, ev reconcile.Event) (reconcile.Outcome, error) {
	span, spanCtx := s.Sentry.MonitorEventProcessing(ctx, ev.Type.String(), event.ReceivedAt, map[string]interface{}{
		"webhook_event_id": event.ID,
		"attempt":          event.Attempts + 1,
	})
	if span != nil {
		defer span.Finish()
	}

	outcome := s.reconciler.Reconcile(spanCtx, ev)

	event.RecordAttempt(outcome.Processed, outcome.Error, s.now())
	if err := s.WebhookEventRepo.UpdateOutcome(ctx, event); err != nil {
		s.Logger.Errorw("failed to record webhook outcome",
			"error", err,
			"webhook_event_id", event.ID,
			"processed", outcome.Processed,
		)
		return outcome, err
	}
	return outcome, nil
}

func (s *webhookService) ListEvents(ctx context.Context, filter *types.WebhookEventFilter) (*dto.ListWebhookEventsResponse, error) {
	if filter == nil {
		filter = types.NewWebhookEventFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	events, err := s.WebhookEventRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.WebhookEventRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(events, func(e *webhookevent.WebhookEvent, _ int) *dto.WebhookEventResponse {
		return &dto.WebhookEventResponse{WebhookEvent: e}
	})
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *webhookService) GetEvent(ctx context.Context, id string) (*dto.WebhookEventResponse, error) {
	event, err := s.WebhookEventRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.WebhookEventResponse{WebhookEvent: event}, nil
}

func (s *webhookService) Replay(ctx context.Context, id string) (*dto.WebhookEventResponse, error) {
	event, err := s.WebhookEventRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Processed {
		return nil, ierr.NewError("webhook event already processed").
			WithHint("Only unprocessed events can be replayed").
			WithReportableDetails(map[string]any{
				"webhook_event_id": event.ID,
				"processed_at":     event.ProcessedAt,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	outcome, err := s.replay(ctx, event, "manual")
	if err != nil {
		return nil, err
	}
	s.Logger.Infow("webhook event replayed",
		"webhook_event_id", event.ID,
		"processed", outcome.Processed,
		"attempts", event.Attempts,
	)
	return &dto.WebhookEventResponse{WebhookEvent: event}, nil
}

// replay rebuilds the event from the stored payload and processes it again
func (s *webhookService) replay(ctx context.Context, event *webhookevent.WebhookEvent, trigger string) (reconcile.Outcome, error) {
	ev := reconcile.Event{Type: types.WebhookEventUnknown}
	if env, err := gateway.ParseWebhook(event.Payload); err == nil {
		ev = reconcile.EventFromEnvelope(env)
	}

	outcome, err := s.process(ctx, event, ev)
	s.Metrics.WebhookReplayed.WithLabelValues(trigger, outcomeLabel(outcome)).Inc()
	return outcome, err
}

func outcomeLabel(o reconcile.Outcome) string {
	if o.Processed {
		return "processed"
	}
	return "pending"
}

// retryCutoff is the last-attempt time before which a delivery is due again
func (s *webhookService) retryCutoff() time.Time {
	return s.now().Add(-s.Config.Webhook.Sweep.RetryAfter)
}
