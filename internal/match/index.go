package match

import (
	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// Index holds the per-run catalog lookups. Every key maps to the records that
// share it in insertion order; duplicates are expected.
type Index struct {
	byUPC        map[string][]model.CatalogRecord
	byAttributes map[string][]model.CatalogRecord
	byMakeModel  map[string][]model.CatalogRecord
	size         int
}

// IndexStats summarizes an Index for diagnostics.
type IndexStats struct {
	Records       int
	UPCKeys       int
	AttributeKeys int
	MakeModelKeys int
}

// NewIndex builds the lookups from one or more record batches. A record
// reached twice (same non-empty ID) is indexed once, at its first position.
func NewIndex(batches ...[]model.CatalogRecord) *Index {
	idx := &Index{
		byUPC:        make(map[string][]model.CatalogRecord),
		byAttributes: make(map[string][]model.CatalogRecord),
		byMakeModel:  make(map[string][]model.CatalogRecord),
	}
	seen := make(map[string]bool)
	for _, batch := range batches {
		for _, rec := range batch {
			if rec.ID != "" {
				if seen[rec.ID] {
					continue
				}
				seen[rec.ID] = true
			}
			idx.add(rec)
		}
	}
	return idx
}

func (idx *Index) add(rec model.CatalogRecord) {
	idx.size++
	fields := rec.Fields()
	if k := normalize.UPCKey(rec.UPC); k != "" {
		idx.byUPC[k] = append(idx.byUPC[k], rec)
	}
	if k := normalize.AttributeKey(fields); k != "" {
		idx.byAttributes[k] = append(idx.byAttributes[k], rec)
	}
	if k := normalize.MakeModelKey(fields); k != "" {
		idx.byMakeModel[k] = append(idx.byMakeModel[k], rec)
	}
}

// ByUPC returns records whose identifier equals upc either digit for digit or
// once leading zeros are stripped from both sides.
func (idx *Index) ByUPC(upc string) []model.CatalogRecord {
	k := normalize.UPCKey(upc)
	if k == "" {
		return nil
	}
	return idx.byUPC[k]
}

// ByAttributes returns records whose normalized core tuple equals row's.
func (idx *Index) ByAttributes(row model.CanonicalFieldSet) []model.CatalogRecord {
	k := normalize.AttributeKey(row)
	if k == "" {
		return nil
	}
	return idx.byAttributes[k]
}

// ByMakeModel returns records sharing row's normalized manufacturer and model.
func (idx *Index) ByMakeModel(row model.CanonicalFieldSet) []model.CatalogRecord {
	k := normalize.MakeModelKey(row)
	if k == "" {
		return nil
	}
	return idx.byMakeModel[k]
}

// Len returns the number of distinct records indexed.
func (idx *Index) Len() int { return idx.size }

// Stats reports index sizes.
func (idx *Index) Stats() IndexStats {
	return IndexStats{
		Records:       idx.size,
		UPCKeys:       len(idx.byUPC),
		AttributeKeys: len(idx.byAttributes),
		MakeModelKeys: len(idx.byMakeModel),
	}
}
