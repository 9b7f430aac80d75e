package match

import (
	"fmt"
	"strings"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// minContainLen is the shortest normalized token allowed to match by
// containment rather than equality.
const minContainLen = 3

// Comparison is the outcome of comparing one field.
type Comparison struct {
	Match  bool
	Reason string
}

type comparator func(actual, expected string) bool

var comparators = map[model.Field]comparator{
	model.FieldUPC:          exact(normalize.UPCKey),
	model.FieldManufacturer: exact(normalize.Manufacturer),
	model.FieldModel:        containing(normalize.Model),
	model.FieldType:         containing(normalize.Type),
	model.FieldCaliber:      containing(normalize.Caliber),
	model.FieldImporter:     exact(normalize.Token),
	model.FieldCountry:      exact(normalize.Token),
}

func exact(norm func(string) string) comparator {
	return func(actual, expected string) bool {
		return norm(actual) == norm(expected)
	}
}

// containing tolerates one side carrying extra descriptive text the other
// omits ("AR15" vs "AR-15 Rifle").
func containing(norm func(string) string) comparator {
	return func(actual, expected string) bool {
		a, e := norm(actual), norm(expected)
		if a == e {
			return true
		}
		if len(a) < minContainLen || len(e) < minContainLen {
			return false
		}
		return strings.Contains(a, e) || strings.Contains(e, a)
	}
}

// CompareField compares an uploaded value against the catalog value. A blank
// on both sides, or on the catalog side only, is not a conflict.
func CompareField(f model.Field, actual, expected string) Comparison {
	actual, expected = strings.TrimSpace(actual), strings.TrimSpace(expected)
	switch {
	case actual == "" && expected == "":
		return Comparison{Match: true}
	case actual == "":
		return Comparison{Reason: model.ReasonMissingValue}
	case expected == "":
		return Comparison{Match: true}
	}

	cmp, ok := comparators[f]
	if !ok {
		cmp = exact(normalize.Token)
	}
	if cmp(actual, expected) {
		return Comparison{Match: true}
	}
	return Comparison{Reason: fmt.Sprintf(`Expected "%s"`, expected)}
}

// compareRecord compares fields of row against rec and records every
// disagreement on res in field order.
func compareRecord(res *model.MatchResult, row model.CanonicalFieldSet, rec model.CatalogRecord, fields []model.Field) {
	want := rec.Fields()
	for _, f := range fields {
		c := CompareField(f, row.Get(f), want.Get(f))
		if c.Match {
			continue
		}
		res.AddMismatch(f, model.FieldMeta{
			Expected: want.Get(f),
			Actual:   row.Get(f),
			Reason:   c.Reason,
		})
	}
}
