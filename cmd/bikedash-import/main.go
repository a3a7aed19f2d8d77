package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"bikedash/internal/cli"
	"bikedash/internal/config"
	"bikedash/internal/core"
	applog "bikedash/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentStorage)
	defaults := config.Load()

	file := flag.String("file", defaults.DataFile, "CSV file to import")
	db := flag.String("db", defaults.SQLiteDBPath, "SQLite database to replace")
	flag.Parse()

	start := time.Now()
	n, err := cli.ImportCSV(context.Background(), *file, *db)
	if err != nil {
		fields := applog.NewFields().
			WithOperation(applog.OpImport).
			WithError(err).
			With(applog.FieldSource, *file)
		var loadErr *core.LoadError
		if errors.As(err, &loadErr) {
			fields = fields.With("line", loadErr.Line).With("column", loadErr.Column)
		}
		logger.Error("Import failed", fields.ToSlice()...)
		os.Exit(cli.ExitCode(err))
	}

	logger.Info("Import complete",
		applog.FieldSource, *file,
		"db", *db,
		applog.FieldRecords, n,
		applog.FieldDuration, time.Since(start).Milliseconds())
}
