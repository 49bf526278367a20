// Package postgres persists each reconciliation snapshot so other services
// can query the latest classification with SQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS site_records (
    site_key          TEXT PRIMARY KEY,
    sheet_row         INTEGER NOT NULL,
    name              TEXT NOT NULL,
    street_db         TEXT NOT NULL,
    city_db           TEXT NOT NULL,
    category          TEXT NOT NULL,
    lat               DOUBLE PRECISION,
    lon               DOUBLE PRECISION,
    geo_source        TEXT NOT NULL,
    invalid_geometry  BOOLEAN NOT NULL,
    payload           JSONB NOT NULL,
    loaded_at         TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS site_records_category_idx ON site_records (category);
CREATE TABLE IF NOT EXISTS site_refreshes (
    loaded_at         TIMESTAMPTZ PRIMARY KEY,
    total             INTEGER NOT NULL,
    invalid_geometry  INTEGER NOT NULL,
    summary           JSONB NOT NULL
);`

const upsertRecordSQL = `INSERT INTO site_records (site_key, sheet_row, name, street_db, city_db, category, lat, lon, geo_source, invalid_geometry, payload, loaded_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
ON CONFLICT (site_key) DO UPDATE
SET sheet_row = EXCLUDED.sheet_row,
    name = EXCLUDED.name,
    street_db = EXCLUDED.street_db,
    city_db = EXCLUDED.city_db,
    category = EXCLUDED.category,
    lat = EXCLUDED.lat,
    lon = EXCLUDED.lon,
    geo_source = EXCLUDED.geo_source,
    invalid_geometry = EXCLUDED.invalid_geometry,
    payload = EXCLUDED.payload,
    loaded_at = EXCLUDED.loaded_at,
    updated_at = NOW()`

// Rows that disappeared from the sheet are removed so the table mirrors the
// latest snapshot.
const pruneRecordsSQL = `DELETE FROM site_records WHERE NOT (site_key = ANY($1))`

const insertRefreshSQL = `INSERT INTO site_refreshes (loaded_at, total, invalid_geometry, summary)
VALUES ($1,$2,$3,$4)
ON CONFLICT (loaded_at) DO NOTHING`

// conn is the subset of *pgxpool.Pool used by Store.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store writes snapshots to Postgres. It implements pipeline.Sink.
type Store struct {
	db     conn
	close  func()
	logger *slog.Logger
}

// New connects to Postgres and ensures the schema exists.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: pool, close: pool.Close, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

// Publish upserts every record, prunes rows no longer in the sheet, and
// appends the refresh summary, all in a single batch.
func (s *Store) Publish(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}

	batch, err := buildBatch(report)
	if err != nil {
		return err
	}

	res := s.db.SendBatch(ctx, batch)
	defer res.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	s.logger.Debug("saved snapshot", "records", len(report.Records))
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

func buildBatch(report *domain.Report) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	keys := make([]string, 0, len(report.Records))

	for i := range report.Records {
		args, err := recordArgs(report.Records[i])
		if err != nil {
			return nil, err
		}
		batch.Queue(upsertRecordSQL, args...)
		keys = append(keys, report.Records[i].Key)
	}
	batch.Queue(pruneRecordsSQL, keys)

	summary, err := json.Marshal(report.Summary)
	if err != nil {
		return nil, fmt.Errorf("serialize summary: %w", err)
	}
	batch.Queue(insertRefreshSQL, report.Summary.LoadedAt, report.Summary.Total, report.Summary.InvalidGeometry, summary)
	return batch, nil
}

func recordArgs(rec domain.SiteRecord) ([]any, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("serialize site record %s: %w", rec.Key, err)
	}

	var lat, lon *float64
	if rec.Location != nil {
		lat, lon = &rec.Location.Lat, &rec.Location.Lon
	}

	return []any{
		rec.Key,
		rec.Row,
		rec.Name,
		rec.StreetDB,
		rec.CityDB,
		string(rec.Category),
		lat,
		lon,
		string(rec.GeoSource),
		rec.InvalidGeometry,
		payload,
		rec.LoadedAt,
	}, nil
}
