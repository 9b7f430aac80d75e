package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig names the target table and how conflicting rows merge.
type UpsertConfig struct {
	Table        string   // "catalog_records" or "schema.table"
	Columns      []string // row layout, in order
	ConflictKeys []string // unique key the rows merge on
	UpdateCols   []string // overwritten on conflict; nil means every non-key column
}

// updateColumns resolves UpdateCols, defaulting to the non-key columns.
func (c UpsertConfig) updateColumns() []string {
	if c.UpdateCols != nil {
		return c.UpdateCols
	}
	keys := make(map[string]bool, len(c.ConflictKeys))
	for _, k := range c.ConflictKeys {
		keys[k] = true
	}
	var out []string
	for _, col := range c.Columns {
		if !keys[col] {
			out = append(out, col)
		}
	}
	return out
}

// stagingTable is the per-transaction table rows are copied into first.
func (c UpsertConfig) stagingTable() pgx.Identifier {
	return pgx.Identifier{"_tmp_upsert_" + strings.ReplaceAll(c.Table, ".", "_")}
}

// mergeSQL moves staged rows into the target, overwriting on key conflict.
func (c UpsertConfig) mergeSQL() string {
	cols := quoteAndJoin(c.Columns)
	set := make([]string, 0, len(c.Columns))
	for _, col := range c.updateColumns() {
		q := pgx.Identifier{col}.Sanitize()
		set = append(set, q+" = EXCLUDED."+q)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		identifier(c.Table).Sanitize(), cols, cols,
		c.stagingTable().Sanitize(), quoteAndJoin(c.ConflictKeys), strings.Join(set, ", "))
}

// BulkUpsert loads rows in a single transaction: COPY into a staging table
// dropped on commit, then one INSERT ... ON CONFLICT DO UPDATE into the
// target. It returns the number of rows the merge touched. A key may appear
// only once in rows.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := cfg.stagingTable()
	stage := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(), identifier(cfg.Table).Sanitize())
	if _, err := tx.Exec(ctx, stage); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: stage %s", cfg.Table)
	}
	if _, err := tx.CopyFrom(ctx, staging, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: copy staged rows for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, cfg.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// identifier splits schema-qualified names like "inventory.catalog_records".
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
