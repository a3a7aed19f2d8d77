// Package worker builds and publishes reports requested over the queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"bikedash/internal/amqp"
	"bikedash/internal/analytics"
	"bikedash/internal/core"
	"bikedash/internal/dataset"
	applog "bikedash/internal/log"
	"bikedash/internal/metrics"
	"bikedash/internal/report"
	"bikedash/internal/sheets"
)

const (
	sinkXLSX   = "xlsx"
	sinkSheets = "sheets"
)

type Options struct {
	// Publisher is optional; without it only the xlsx file is written.
	Publisher sheets.ReportPublisher
	Metrics   *metrics.Recorder
	Logger    *applog.Logger
	// Timeout bounds one report. Zero means no limit beyond the caller's.
	Timeout time.Duration
}

// ReportWorker handles report requests against the record set loaded at
// startup.
type ReportWorker struct {
	data      dataset.RecordSet
	reportDir string
	publisher sheets.ReportPublisher
	metrics   *metrics.Recorder
	logger    *applog.Logger
	timeout   time.Duration
}

func NewReportWorker(data dataset.RecordSet, reportDir string, opts Options) *ReportWorker {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &ReportWorker{
		data:      data,
		reportDir: reportDir,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger,
		timeout:   opts.Timeout,
	}
}

// Result names where one report was written.
type Result struct {
	Path      string
	SheetsRef string
}

// HandleReportRequest processes one report request message. Requests with
// an invalid range fail with amqp.ErrRejected so they are not requeued.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	rng, err := msg.Range()
	if err != nil {
		w.logger.WarnContext(ctx, "Rejecting report request",
			applog.FieldReportID, msg.ID,
			applog.FieldError, err)
		return fmt.Errorf("%w: report %s: %v", amqp.ErrRejected, msg.ID, err)
	}

	res, err := w.Generate(ctx, rng)
	if err != nil {
		return fmt.Errorf("report %s: %w", msg.ID, err)
	}

	w.logger.LogFields(ctx, slog.LevelInfo, "Report completed",
		applog.NewFields().
			WithOperation(applog.OpExport).
			WithRange(msg.Start, msg.End).
			With(applog.FieldReportID, msg.ID).
			With(applog.FieldReportPath, res.Path).
			With(applog.FieldSheetsRef, res.SheetsRef))
	return nil
}

// Generate builds the dashboard for rng and writes it to both sinks
// concurrently. The first sink error cancels the other.
func (w *ReportWorker) Generate(ctx context.Context, rng core.DateRange) (Result, error) {
	if err := rng.Validate(); err != nil {
		return Result{}, err
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { w.metrics.ObserveReport(time.Since(start)) }()

	d := analytics.Build(w.data, rng)
	if d.Empty {
		w.logger.InfoContext(ctx, "Report range holds no records",
			applog.FieldRangeStart, d.Start,
			applog.FieldRangeEnd, d.End)
	}

	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := w.writeWorkbook(gctx, d)
		w.metrics.ReportSink(sinkXLSX, err)
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		res.Path = path
		return nil
	})
	if w.publisher != nil {
		g.Go(func() error {
			ref, err := w.publisher.PublishReport(gctx, d)
			w.metrics.ReportSink(sinkSheets, err)
			if err != nil {
				return fmt.Errorf("publish to sheets: %w", err)
			}
			res.SheetsRef = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// writeWorkbook writes through a temporary file so readers never see a
// partial workbook.
func (w *ReportWorker) writeWorkbook(ctx context.Context, d core.Dashboard) (string, error) {
	data, err := report.Workbook(d)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.reportDir, ".bikedash-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	path := filepath.Join(w.reportDir, report.Filename(d))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}
	return path, nil
}
