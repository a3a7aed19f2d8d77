// Package storage keeps the record set in SQLite so the dashboard can start
// without re-parsing the CSV.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bikedash/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const insertRecord = `INSERT INTO records
	(seq, id, day, season, weather, hour, day_status, weekday, casual, registered, total)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ImportRecords replaces the stored records with records in a single
// transaction. Either all rows are written or the table is left unchanged.
// The position of each record in records is stored so that LoadRecords
// returns same-day records in import order.
func (r *SQLiteRepository) ImportRecords(ctx context.Context, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		var hour sql.NullInt64
		if rec.HasHour {
			hour = sql.NullInt64{Int64: int64(rec.Hour), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			seq, rec.ID, rec.Date.String(), string(rec.Season), rec.Weather, hour,
			string(rec.DayStatus), rec.Weekday, rec.Casual, rec.Registered, rec.Total,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Records imported to SQLite", "count", len(records))
	return nil
}

// LoadRecords returns every stored record ordered by date, then import
// order.
func (r *SQLiteRepository) LoadRecords(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, day, season, weather, hour, day_status, weekday, casual, registered, total
		FROM records ORDER BY day, seq, id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			rec               core.Record
			day, season, stat string
			hour              sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &day, &season, &rec.Weather, &hour, &stat,
			&rec.Weekday, &rec.Casual, &rec.Registered, &rec.Total); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if rec.Date, err = core.ParseDate(day); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if rec.Season, err = core.ParseSeason(season); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if rec.DayStatus, err = core.ParseDayStatus(stat); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if hour.Valid {
			rec.Hour, rec.HasHour = int(hour.Int64), true
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// CountRecords reports how many records are stored.
func (r *SQLiteRepository) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
