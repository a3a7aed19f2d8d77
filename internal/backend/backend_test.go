package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bikedash/internal/config"
	"bikedash/internal/core"
	"bikedash/internal/storage"
)

const csvData = `instant,dteday,season,weathersit,weekday,workingday,casual,registered,cnt
1,2011-01-01,Winter,Clear,Saturday,0,3,13,16
2,2011-01-02,Winter,Mist,Sunday,0,5,10,15
`

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		app     *config.Config
		wantErr bool
	}{
		{"nil", nil, true},
		{"csv", &config.Config{DataBackend: "csv", DataFile: "data.csv"}, false},
		{"sqlite", &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", &config.Config{DataBackend: "sqlite"}, true},
		{"unknown", &config.Config{DataBackend: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAppConfig(tt.app)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpen_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main_data.csv")
	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		t.Fatal(err)
	}

	src, cleanup, err := Open(Config{Type: CSVBackend, DataFile: path}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cleanup()

	rs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rs.Len() != 2 {
		t.Errorf("expected 2 records, got %d", rs.Len())
	}
}

func TestOpen_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bikedash.db")
	ctx := context.Background()

	src, cleanup, err := Open(Config{Type: SQLiteBackend, SQLiteDBPath: dbPath}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cleanup()

	var loadErr *core.LoadError
	if _, err := src.Load(ctx); !errors.As(err, &loadErr) {
		t.Fatalf("empty store must be a LoadError, got %v", err)
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	defer repo.Close()
	if err := repo.ImportRecords(ctx, []core.Record{{
		ID: "1", Date: core.NewDate(2011, 1, 1), Season: core.Winter, Weather: "Clear",
		DayStatus: core.Holiday, Weekday: "Saturday", Casual: 3, Registered: 13, Total: 16,
	}}); err != nil {
		t.Fatalf("ImportRecords: %v", err)
	}

	rs, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rs.Len() != 1 {
		t.Errorf("expected 1 record, got %d", rs.Len())
	}
}

type fakeLoader struct {
	records []core.Record
	err     error
}

func (f fakeLoader) LoadRecords(context.Context) ([]core.Record, error) {
	return f.records, f.err
}

func TestSQLiteSource_LoadErrors(t *testing.T) {
	scanErr := errors.New("record 7: invalid date")
	tests := []struct {
		name   string
		loader fakeLoader
		cause  error
	}{
		{"malformed row", fakeLoader{err: scanErr}, scanErr},
		{"already typed", fakeLoader{err: &core.LoadError{Source: "inner", Err: core.ErrInvalidSeason}}, core.ErrInvalidSeason},
		{"empty store", fakeLoader{}, errEmptyStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sqliteSource{repo: tt.loader, path: "bikedash.db"}
			_, err := src.Load(context.Background())
			var loadErr *core.LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *core.LoadError, got %v", err)
			}
			if !errors.Is(err, tt.cause) {
				t.Errorf("err = %v, want cause %v", err, tt.cause)
			}
		})
	}
}
