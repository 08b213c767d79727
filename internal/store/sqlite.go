package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"pv_optimizer/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS weather_samples (
	location    TEXT    NOT NULL,
	ts          INTEGER NOT NULL,
	temperature REAL    NOT NULL,
	dhi         REAL    NOT NULL,
	dni         REAL    NOT NULL,
	ghi         REAL    NOT NULL,
	PRIMARY KEY (location, ts)
)`

// SQLite persists weather samples on disk so repeated analyses of the same
// site do not refetch from the provider.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// Writers would otherwise contend for the single file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Save upserts samples for a location in a single transaction.
func (s *SQLite) Save(ctx context.Context, loc model.Location, samples []model.WeatherSample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO weather_samples
		(location, ts, temperature, dhi, dni, ghi) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	key := LocationKey(loc)
	for _, sample := range samples {
		if _, err := stmt.ExecContext(ctx, key, sample.Timestamp.Unix(),
			sample.Temperature, sample.DHI, sample.DNI, sample.GHI); err != nil {
			return fmt.Errorf("insert sample %s: %w", sample.Timestamp.UTC().Format(time.RFC3339), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the samples of one UTC year, nil when none are stored.
func (s *SQLite) Load(ctx context.Context, loc model.Location, year int) ([]model.WeatherSample, error) {
	r := model.YearRange(year)
	return s.SamplesInRange(ctx, loc, r.Start, r.End)
}

// SamplesInRange returns samples between start (inclusive) and end (exclusive).
func (s *SQLite) SamplesInRange(ctx context.Context, loc model.Location, start, end time.Time) ([]model.WeatherSample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, temperature, dhi, dni, ghi
		FROM weather_samples
		WHERE location = ? AND ts >= ? AND ts < ?
		ORDER BY ts`, LocationKey(loc), start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []model.WeatherSample
	for rows.Next() {
		var ts int64
		var sample model.WeatherSample
		if err := rows.Scan(&ts, &sample.Temperature, &sample.DHI, &sample.DNI, &sample.GHI); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, sample)
	}
	return out, rows.Err()
}

// Stats summarizes what is stored for a location.
type Stats struct {
	Samples int
	Range   model.TimeRange
}

func (s *SQLite) Stats(ctx context.Context, loc model.Location) (Stats, error) {
	var st Stats
	var first, last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(ts), MAX(ts)
		FROM weather_samples WHERE location = ?`, LocationKey(loc)).Scan(&st.Samples, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	if first.Valid && last.Valid {
		st.Range = model.TimeRange{Start: time.Unix(first.Int64, 0).UTC(), End: time.Unix(last.Int64, 0).UTC()}
	}
	return st, nil
}
