package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// idAliases are the accepted header names for a catalog record id.
var idAliases = []string{"id", "catalog_id", "Catalog ID", "sku"}

// recordNamespace seeds deterministic ids for imported rows that carry none,
// so re-importing the same file upserts instead of duplicating.
var recordNamespace = uuid.MustParse("6f1d0c2e-4b1a-5d7e-9a3c-2e8f4b6d1a90")

// RecordsFromUpload maps a parsed catalog file onto catalog records using
// the same header aliases as inventory uploads. Rows with no values are
// skipped.
func RecordsFromUpload(upload model.Upload) ([]model.CatalogRecord, error) {
	var out []model.CatalogRecord
	for _, row := range upload.Rows {
		c, _ := normalize.Canonicalize(row)
		if c == (model.CanonicalFieldSet{}) {
			continue
		}

		id, _, _ := normalize.ResolveAlias(row.Fields, idAliases)
		if id == "" {
			id = derivedID(c)
		}

		out = append(out, model.CatalogRecord{
			ID:           id,
			UPC:          c.UPC,
			Manufacturer: c.Manufacturer,
			Model:        c.Model,
			Type:         c.Type,
			Caliber:      c.Caliber,
			Importer:     c.Importer,
			Country:      c.Country,
		})
	}
	if len(out) == 0 {
		return nil, eris.New("catalog: import file has no catalog records")
	}
	return out, nil
}

func derivedID(c model.CanonicalFieldSet) string {
	parts := make([]string, 0, len(model.AllFields))
	for _, f := range model.AllFields {
		parts = append(parts, c.Get(f))
	}
	return uuid.NewSHA1(recordNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}
