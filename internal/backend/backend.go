// Package backend selects where the record set is loaded from.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bikedash/internal/config"
	"bikedash/internal/core"
	"bikedash/internal/dataset"
	"bikedash/internal/storage"
)

// BackendType names a record source.
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what a Source needs to open its backing store.
type Config struct {
	Type         BackendType
	DataFile     string
	SQLiteDBPath string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		DataFile:     appConfig.DataFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Type {
	case CSVBackend:
		if c.DataFile == "" {
			return fmt.Errorf("data file is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// Source produces the record set the dashboard serves.
type Source interface {
	Load(ctx context.Context) (dataset.RecordSet, error)
	Describe() string
}

// CleanupFunc releases resources held by a Source.
type CleanupFunc func() error

// Open returns the Source selected by cfg and its cleanup function.
func Open(cfg Config, logger *slog.Logger) (Source, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite record source", "db_path", cfg.SQLiteDBPath)
		return &sqliteSource{repo: repo, path: cfg.SQLiteDBPath}, repo.Close, nil
	default:
		logger.Info("Initialized CSV record source", "path", cfg.DataFile)
		return csvSource{path: cfg.DataFile}, func() error { return nil }, nil
	}
}

type csvSource struct {
	path string
}

func (s csvSource) Load(ctx context.Context) (dataset.RecordSet, error) {
	return dataset.LoadCSV(s.path)
}

func (s csvSource) Describe() string { return "csv:" + s.path }

// RecordLoader is the storage capability a sqlite source needs.
type RecordLoader interface {
	LoadRecords(ctx context.Context) ([]core.Record, error)
}

type sqliteSource struct {
	repo RecordLoader
	path string
}

func (s *sqliteSource) Load(ctx context.Context) (dataset.RecordSet, error) {
	records, err := s.repo.LoadRecords(ctx)
	if err != nil {
		var loadErr *core.LoadError
		if errors.As(err, &loadErr) {
			return dataset.RecordSet{}, err
		}
		return dataset.RecordSet{}, &core.LoadError{Source: s.Describe(), Err: err}
	}
	if len(records) == 0 {
		return dataset.RecordSet{}, &core.LoadError{Source: s.Describe(), Err: errEmptyStore}
	}
	return dataset.New(records), nil
}

func (s *sqliteSource) Describe() string { return "sqlite:" + s.path }

var errEmptyStore = errors.New("no records stored; run bikedash-import first")
