package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"

	"bikedash/internal/core"
	applog "bikedash/internal/log"
	"bikedash/internal/metrics"
)

// ScheduledEnqueuer queues a report on behalf of the scheduler.
type ScheduledEnqueuer interface {
	PublishScheduledReport(ctx context.Context, rng core.DateRange) (string, error)
}

// Scheduler enqueues a full-range report on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	rng      core.DateRange
	enqueuer ScheduledEnqueuer
	metrics  *metrics.Recorder
	logger   *applog.Logger
	timeout  time.Duration
}

func NewScheduler(spec string, rng core.DateRange, enqueuer ScheduledEnqueuer, m *metrics.Recorder, logger *applog.Logger) (*Scheduler, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("scheduled range: %w", err)
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentScheduler)
	}
	s := &Scheduler{
		cron:     cron.New(),
		rng:      rng,
		enqueuer: enqueuer,
		metrics:  m,
		logger:   logger,
		timeout:  10 * time.Second,
	}
	if err := s.cron.AddFunc(spec, s.enqueue); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Report schedule started",
		applog.FieldRangeStart, s.rng.Start.String(),
		applog.FieldRangeEnd, s.rng.End.String())
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) enqueue() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	id, err := s.enqueuer.PublishScheduledReport(ctx, s.rng)
	if err != nil {
		applog.LogError(applog.IntoContext(ctx, s.logger), "Failed to enqueue scheduled report", err, applog.OpEnqueue,
			applog.NewFields().WithRange(s.rng.Start.String(), s.rng.End.String()))
		return
	}
	s.metrics.ReportEnqueued("schedule")
	s.logger.InfoContext(ctx, "Scheduled report enqueued", applog.FieldReportID, id)
}
