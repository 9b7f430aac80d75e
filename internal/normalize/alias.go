package normalize

import (
	"sort"
	"strings"

	"github.com/sells-group/catalog-verify/internal/model"
)

// FieldAliases pairs a canonical field with its accepted upload headers in
// priority order.
type FieldAliases struct {
	Field   model.Field
	Aliases []string
}

// Aliases is the fixed header alias table.
var Aliases = []FieldAliases{
	{Field: model.FieldUPC, Aliases: []string{"UPC", "EAN", "Barcode"}},
	{Field: model.FieldManufacturer, Aliases: []string{"Manufacturer", "MFR", "Brand", "Maker"}},
	{Field: model.FieldModel, Aliases: []string{"Model"}},
	{Field: model.FieldType, Aliases: []string{"Type", "Category"}},
	{Field: model.FieldCaliber, Aliases: []string{"Caliber", "Cal"}},
	{Field: model.FieldImporter, Aliases: []string{"Importer"}},
	{Field: model.FieldCountry, Aliases: []string{"Country of Manufacture", "Country", "CountryOfManufacture"}},
}

// AliasesFor returns the alias list of a canonical field.
func AliasesFor(f model.Field) []string {
	for _, a := range Aliases {
		if a.Field == f {
			return a.Aliases
		}
	}
	return nil
}

// ResolveAlias returns the first non-blank value found under one of aliases,
// together with the header it was found under. Each alias is probed as given,
// lowercased and uppercased before any other casing is considered.
func ResolveAlias(fields map[string]string, aliases []string) (value, key string, ok bool) {
	var keys []string
	for _, alias := range aliases {
		for _, probe := range []string{alias, strings.ToLower(alias), strings.ToUpper(alias)} {
			if v, found := fields[probe]; found && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), probe, true
			}
		}
		if keys == nil {
			keys = sortedKeys(fields)
		}
		for _, k := range keys {
			if strings.EqualFold(strings.TrimSpace(k), alias) && strings.TrimSpace(fields[k]) != "" {
				return strings.TrimSpace(fields[k]), k, true
			}
		}
	}
	return "", "", false
}

// Canonicalize resolves every canonical field of an upload row. The returned
// passthrough map is a copy of the row's columns; nothing is consumed.
func Canonicalize(row model.UploadRow) (model.CanonicalFieldSet, map[string]string) {
	var c model.CanonicalFieldSet
	for _, a := range Aliases {
		if v, _, ok := ResolveAlias(row.Fields, a.Aliases); ok {
			c.Set(a.Field, v)
		}
	}
	passthrough := make(map[string]string, len(row.Fields))
	for k, v := range row.Fields {
		passthrough[k] = v
	}
	return c, passthrough
}

// AttributeKey is the exact-match key over the normalized core attributes.
// It is empty when every core attribute is blank.
func AttributeKey(c model.CanonicalFieldSet) string {
	m, mo, t, cal := Manufacturer(c.Manufacturer), Model(c.Model), Type(c.Type), Caliber(c.Caliber)
	if m == "" && mo == "" && t == "" && cal == "" {
		return ""
	}
	return strings.Join([]string{m, mo, t, cal}, "|")
}

// MakeModelKey is the key over normalized manufacturer and model used to find
// partially matching catalog records.
func MakeModelKey(c model.CanonicalFieldSet) string {
	m, mo := Manufacturer(c.Manufacturer), Model(c.Model)
	if m == "" && mo == "" {
		return ""
	}
	return m + "|" + mo
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
