package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/resilience"
)

// sqliteMaxVars keeps IN lists under SQLite's bound parameter limit.
const sqliteMaxVars = 900

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	retry resilience.RetryConfig
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, retry: resilience.DefaultRetryConfig()}, nil
}

// SetRetry replaces the retry policy for reads.
func (s *SQLiteStore) SetRetry(cfg resilience.RetryConfig) {
	s.retry = cfg
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS catalog_records (
	id           TEXT PRIMARY KEY,
	upc          TEXT NOT NULL DEFAULT '',
	upc_key      TEXT NOT NULL DEFAULT '',
	manufacturer TEXT NOT NULL DEFAULT '',
	model        TEXT NOT NULL DEFAULT '',
	type         TEXT NOT NULL DEFAULT '',
	caliber      TEXT NOT NULL DEFAULT '',
	importer     TEXT NOT NULL DEFAULT '',
	country      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_catalog_records_upc_key ON catalog_records(upc_key);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchByUPC(ctx context.Context, keys []string) ([]model.CatalogRecord, error) {
	var out []model.CatalogRecord
	for start := 0; start < len(keys); start += sqliteMaxVars {
		end := min(start+sqliteMaxVars, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		q := `SELECT ` + selectColumns + ` FROM catalog_records WHERE upc_key IN (?` +
			strings.Repeat(", ?", len(chunk)-1) + `) ORDER BY id`

		recs, err := s.query(ctx, "fetch_by_upc", q, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (s *SQLiteStore) ScanPage(ctx context.Context, afterID string, limit int) ([]model.CatalogRecord, error) {
	return s.query(ctx, "scan_page",
		`SELECT `+selectColumns+` FROM catalog_records WHERE id > ? ORDER BY id LIMIT ?`,
		afterID, limit,
	)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM catalog_records`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count catalog records")
	}
	return n, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	return s.write(ctx, false, records)
}

func (s *SQLiteStore) Replace(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	return s.write(ctx, true, records)
}

const sqliteUpsert = `INSERT INTO catalog_records (id, upc, upc_key, manufacturer, model, type, caliber, importer, country)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	upc = excluded.upc,
	upc_key = excluded.upc_key,
	manufacturer = excluded.manufacturer,
	model = excluded.model,
	type = excluded.type,
	caliber = excluded.caliber,
	importer = excluded.importer,
	country = excluded.country`

func (s *SQLiteStore) write(ctx context.Context, truncate bool, records []model.CatalogRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if truncate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_records`); err != nil {
			return 0, eris.Wrap(err, "sqlite: clear catalog")
		}
	}

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, r := range dedupeByID(records) {
		if _, err := stmt.ExecContext(ctx, recordValues(r)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert catalog record %s", r.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, op, q string, args ...any) ([]model.CatalogRecord, error) {
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("sqlite", op)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]model.CatalogRecord, error) {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s", op)
		}
		defer rows.Close() //nolint:errcheck

		var out []model.CatalogRecord
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: %s: scan", op)
			}
			out = append(out, r)
		}
		return out, eris.Wrapf(rows.Err(), "sqlite: %s: rows", op)
	})
}
