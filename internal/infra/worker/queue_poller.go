package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crm-call-insights/internal/config"
	"crm-call-insights/internal/usecase"
)

// QueuePoller periodically drains the recording queue. It is the only
// automatic driver of the pipeline; the ops API triggers the same use case on
// demand. Runs of the use case never overlap: a slow batch simply delays the
// next tick.
type QueuePoller struct {
	process *usecase.ProcessUseCase
	cfg     config.QueueConfig
	log     *zerolog.Logger
}

func NewQueuePoller(process *usecase.ProcessUseCase, cfg config.QueueConfig, logger *zerolog.Logger) *QueuePoller {
	l := logger.With().Str("component", "QueuePoller").Logger()
	return &QueuePoller{process: process, cfg: cfg, log: &l}
}

// Start runs the polling loop until ctx is cancelled.
// This should be run in a goroutine.
func (p *QueuePoller) Start(ctx context.Context) {
	p.log.Info().Dur("interval", p.cfg.PollInterval).Int("batch_limit", p.cfg.BatchLimit).
		Msg("queue poller started")
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("queue poller stopping")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *QueuePoller) runOnce(ctx context.Context) {
	report, err := p.process.ProcessQueueOnce(ctx, p.cfg.BatchLimit)
	if err != nil {
		p.log.Error().Err(err).Msg("queue pass failed")
		return
	}
	if report.Taken > 0 {
		p.log.Info().Int("taken", report.Taken).Int("done", report.Done).Msg("queue pass finished")
	}
}
