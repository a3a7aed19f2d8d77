package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"bikedash/internal/amqp"
	"bikedash/internal/cli"
	"bikedash/internal/core"
	applog "bikedash/internal/log"
	"bikedash/internal/metrics"
	"bikedash/internal/sheets/google"
	"bikedash/internal/worker"
)

func main() {
	start := flag.String("start", "", "generate one report from this date (YYYY-MM-DD) and exit")
	end := flag.String("end", "", "last date of the one-shot report (YYYY-MM-DD)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	data := cli.LoadRecordSet(context.Background(), logger, cfg)

	recorder := metrics.NewRecorder()
	recorder.SetDatasetRecords(data.Len())

	opts := worker.Options{
		Metrics: recorder,
		Logger:  logger,
		Timeout: cfg.ReportTimeout,
	}
	if cfg.SheetsEnabled() {
		publisher, err := google.New(context.Background(), google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets publisher", "error", err)
			os.Exit(1)
		}
		opts.Publisher = publisher
		logger.Info("Publishing reports to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	w := worker.NewReportWorker(data, cfg.ReportDir, opts)

	if *start != "" || *end != "" {
		os.Exit(runOnce(logger, w, *start, *end))
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume report requests")
		os.Exit(1)
	}
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to create AMQP client", "error", err)
		os.Exit(1)
	}

	var scheduler *worker.Scheduler
	if cfg.ReportSchedule != "" {
		bounds, ok := data.Bounds()
		if !ok {
			logger.Error("Cannot schedule reports over an empty record set")
			os.Exit(1)
		}
		scheduler, err = worker.NewScheduler(cfg.ReportSchedule, bounds, amqpClient, recorder,
			logger.WithComponent(applog.ComponentScheduler))
		if err != nil {
			logger.Error("Invalid report schedule", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		metricsSrv = serveMetrics(logger, *metricsAddr, recorder)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop()
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	logger.Info("Report worker started",
		"queue", cfg.AMQPQueue,
		"report_dir", cfg.ReportDir,
		"schedule", cfg.ReportSchedule,
		"sheets", cfg.SheetsEnabled())

	if err := amqpClient.ConsumeReportRequests(ctx, w.HandleReportRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}

// runOnce generates a single report without a broker and returns the exit
// code.
func runOnce(logger *applog.Logger, w *worker.ReportWorker, start, end string) int {
	rng, err := parseRange(start, end)
	if err != nil {
		logger.Error("Invalid report range", "error", err)
		return 2
	}
	res, err := w.Generate(context.Background(), rng)
	if err != nil {
		logger.Error("Report generation failed", applog.NewFields().WithRange(start, end).WithError(err).ToSlice()...)
		return 1
	}
	logger.Info("Report generated",
		applog.FieldRangeStart, start,
		applog.FieldRangeEnd, end,
		applog.FieldReportPath, res.Path,
		applog.FieldSheetsRef, res.SheetsRef)
	return 0
}

func parseRange(start, end string) (core.DateRange, error) {
	s, err := core.ParseDate(start)
	if err != nil {
		return core.DateRange{}, err
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.DateRange{}, err
	}
	rng := core.DateRange{Start: s, End: e}
	return rng, rng.Validate()
}

func serveMetrics(logger *applog.Logger, addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", addr)
	return srv
}
