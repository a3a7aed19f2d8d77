package cli

import (
	"context"
	"errors"
	"fmt"

	"bikedash/internal/core"
	"bikedash/internal/dataset"
	"bikedash/internal/storage"
)

// Exit codes of the import tool.
const (
	ExitOK        = 0
	ExitLoadError = 1
	ExitFailure   = 2
)

// ImportCSV loads csvPath and replaces the contents of the SQLite database
// at dbPath with it, returning the number of imported records.
func ImportCSV(ctx context.Context, csvPath, dbPath string) (int, error) {
	rs, err := dataset.LoadCSV(csvPath)
	if err != nil {
		return 0, err
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	if err := repo.ImportRecords(ctx, rs.Records()); err != nil {
		return 0, fmt.Errorf("import records: %w", err)
	}
	return rs.Len(), nil
}

// ExitCode maps an import error to the process exit code.
func ExitCode(err error) int {
	var loadErr *core.LoadError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &loadErr):
		return ExitLoadError
	default:
		return ExitFailure
	}
}
