package match

import (
	"github.com/sells-group/catalog-verify/internal/model"
)

// CountCoreMatches returns how many core fields of row agree with rec.
func CountCoreMatches(row model.CanonicalFieldSet, rec model.CatalogRecord) int {
	want := rec.Fields()
	n := 0
	for _, f := range model.CoreFields {
		if CompareField(f, row.Get(f), want.Get(f)).Match {
			n++
		}
	}
	return n
}

// Rank picks the candidate agreeing with row on the most core fields. Ties
// go to the earliest candidate. It returns -1 when candidates is empty.
func Rank(row model.CanonicalFieldSet, candidates []model.CatalogRecord) (best, matched int) {
	best, matched = -1, -1
	for i, rec := range candidates {
		if n := CountCoreMatches(row, rec); n > matched {
			best, matched = i, n
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, matched
}
