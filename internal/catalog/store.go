// Package catalog reads and writes the authoritative product catalog that
// upload rows are verified against.
package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// ErrEmptyCatalog is returned when a run finds no catalog data at all.
var ErrEmptyCatalog = eris.New("catalog: no catalog records available")

// Store defines the persistence interface for catalog records.
type Store interface {
	// Reads
	FetchByUPC(ctx context.Context, keys []string) ([]model.CatalogRecord, error)
	ScanPage(ctx context.Context, afterID string, limit int) ([]model.CatalogRecord, error)
	Count(ctx context.Context) (int, error)

	// Writes
	Insert(ctx context.Context, records []model.CatalogRecord) (int64, error)
	Replace(ctx context.Context, records []model.CatalogRecord) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// columns is the select/insert column order shared by the SQL stores.
var columns = []string{"id", "upc", "upc_key", "manufacturer", "model", "type", "caliber", "importer", "country"}

const selectColumns = "id, upc, manufacturer, model, type, caliber, importer, country"

// scanner is satisfied by pgx.Rows and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.CatalogRecord, error) {
	var r model.CatalogRecord
	err := s.Scan(&r.ID, &r.UPC, &r.Manufacturer, &r.Model, &r.Type, &r.Caliber, &r.Importer, &r.Country)
	return r, err
}

// recordValues returns r as a row in columns order.
func recordValues(r model.CatalogRecord) []any {
	return []any{r.ID, r.UPC, normalize.UPCKey(r.UPC), r.Manufacturer, r.Model, r.Type, r.Caliber, r.Importer, r.Country}
}

// dedupeByID collapses records sharing an id to the last occurrence, kept at
// the position of the first. Postgres rejects a batch that touches the same
// key twice.
func dedupeByID(records []model.CatalogRecord) []model.CatalogRecord {
	pos := make(map[string]int, len(records))
	out := make([]model.CatalogRecord, 0, len(records))
	for _, r := range records {
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}
