package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/catalog-verify/internal/db"
	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/resilience"
)

const catalogTable = "catalog_records"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// PostgresOption customizes a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithQueryRate throttles catalog reads to qps queries per second. Zero or
// negative disables throttling.
func WithQueryRate(qps float64) PostgresOption {
	return func(s *PostgresStore) {
		if qps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(qps), 1)
		}
	}
}

// WithRetry sets the retry policy for catalog reads.
func WithRetry(cfg resilience.RetryConfig) PostgresOption {
	return func(s *PostgresStore) { s.retry = cfg }
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg PoolConfig, opts ...PostgresOption) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg.MaxConns > 0 {
		pgxCfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		pgxCfg.MinConns = poolCfg.MinConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return newPostgresStore(pool, opts...), nil
}

func newPostgresStore(pool db.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, retry: resilience.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const postgresMigration = `
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

// Migrate creates the catalog table and its identifier index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// FetchByUPC returns every record whose leading-zero-stripped identifier is
// one of keys.
func (s *PostgresStore) FetchByUPC(ctx context.Context, keys []string) ([]model.CatalogRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return s.query(ctx, "fetch_by_upc",
		`SELECT `+selectColumns+` FROM catalog_records WHERE upc_key = ANY($1) ORDER BY id`,
		keys,
	)
}

// ScanPage returns up to limit records with id greater than afterID.
func (s *PostgresStore) ScanPage(ctx context.Context, afterID string, limit int) ([]model.CatalogRecord, error) {
	return s.query(ctx, "scan_page",
		`SELECT `+selectColumns+` FROM catalog_records WHERE id > $1 ORDER BY id LIMIT $2`,
		afterID, limit,
	)
}

// Count returns the number of catalog records.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("postgres", "count")
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (int, error) {
		var n int
		if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM catalog_records`).Scan(&n); err != nil {
			return 0, eris.Wrap(err, "postgres: count catalog records")
		}
		return n, nil
	})
}

// Insert upserts records keyed by id. Repeated ids within records collapse
// to the last occurrence.
func (s *PostgresStore) Insert(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        catalogTable,
		Columns:      columns,
		ConflictKeys: []string{"id"},
	}, toRows(dedupeByID(records)))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert catalog records")
	}
	return n, nil
}

// Replace swaps the catalog contents for records in one transaction. A
// failed load leaves the previous catalog in place.
func (s *PostgresStore) Replace(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE catalog_records`); err != nil {
		return 0, eris.Wrap(err, "postgres: truncate catalog")
	}
	n, err := db.CopyFrom(ctx, tx, catalogTable, columns, toRows(dedupeByID(records)))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: replace catalog records")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: replace: commit tx")
	}
	return n, nil
}

func (s *PostgresStore) query(ctx context.Context, op, sql string, args ...any) ([]model.CatalogRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("postgres", op)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]model.CatalogRecord, error) {
		rows, err := s.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s", op)
		}
		defer rows.Close()

		var out []model.CatalogRecord
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: %s: scan", op)
			}
			out = append(out, r)
		}
		return out, eris.Wrapf(rows.Err(), "postgres: %s: rows", op)
	})
}

func (s *PostgresStore) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return eris.Wrap(s.limiter.Wait(ctx), "postgres: rate limit")
}

func toRows(records []model.CatalogRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = recordValues(r)
	}
	return rows
}
