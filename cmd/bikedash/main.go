package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bikedash/internal/amqp"
	"bikedash/internal/cli"
	apphttp "bikedash/internal/http"
	applog "bikedash/internal/log"
	"bikedash/internal/metrics"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	data := cli.LoadRecordSet(context.Background(), logger, cfg)

	recorder := metrics.NewRecorder()
	recorder.SetDatasetRecords(data.Len())

	opts := apphttp.Options{Metrics: recorder, Logger: logger.WithComponent(applog.ComponentHTTP)}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker, report requests disabled", "error", err)
		} else {
			opts.Reports = amqpClient
			logger.Info("Report requests enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, data, opts)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
	})

	logger.Info("Starting server", "port", cfg.Port, "backend", cfg.DataBackend, "records", data.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		return
	}

	cli.WaitForShutdown(ctx, done)
}
