// Package cron runs the in-process scheduled jobs of the billing engine
package cron

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/service"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

// sweepTimeout bounds one sweep run so a stuck gateway cannot pile up runs
const sweepTimeout = 10 * time.Minute

type Scheduler struct {
	cron           *cron.Cron
	webhookService service.WebhookService
	logger         *logger.Logger
	sweepEntry     cron.EntryID
}

// NewScheduler registers the configured jobs without starting them
func NewScheduler(cfg *config.Configuration, webhookService service.WebhookService, log *logger.Logger) (*Scheduler, error) {
	cronLog := &cronLogger{logger: log}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		webhookService: webhookService,
		logger:         log,
	}

	sweep := cfg.Webhook.Sweep
	if !sweep.Enabled {
		log.Infow("webhook sweep disabled")
		return s, nil
	}

	id, err := s.cron.AddFunc(sweep.Schedule, s.RunSweep)
	if err != nil {
		return nil, err
	}
	s.sweepEntry = id
	log.Infow("webhook sweep scheduled", "schedule", sweep.Schedule)
	return s, nil
}

// RunSweep reprocesses pending webhook deliveries once
func (s *Scheduler) RunSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	ctx = types.SetUserID(ctx, types.SystemUserID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())

	started := time.Now()
	resp, err := s.webhookService.ReprocessPending(ctx)
	if err != nil {
		s.logger.Errorw("webhook sweep failed", "error", err)
		return
	}
	if resp.Scanned > 0 {
		s.logger.Infow("webhook sweep run",
			"scanned", resp.Scanned,
			"processed", resp.Processed,
			"unresolved", resp.Unresolved,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}

// Entries lists the registered jobs
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterHooks starts the scheduler with the app and waits for running
// jobs on shutdown
func RegisterHooks(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Infow("stopping scheduler")
			return s.Stop(ctx)
		},
	})
}

// cronLogger adapts the zap logger to cron.Logger
type cronLogger struct {
	logger *logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
