package model

// Field is a canonical field name. Values double as the export column names
// and as the keys of mismatch metadata.
type Field string

const (
	FieldUPC          Field = "UPC"
	FieldManufacturer Field = "Manufacturer"
	FieldModel        Field = "Model"
	FieldType         Field = "Type"
	FieldCaliber      Field = "Caliber"
	FieldImporter     Field = "Importer"
	FieldCountry      Field = "Country"
)

// CoreFields are the descriptive attributes that form the fallback match key.
var CoreFields = []Field{FieldManufacturer, FieldModel, FieldType, FieldCaliber}

// OptionalFields are compared when present but never used as a match key.
var OptionalFields = []Field{FieldImporter, FieldCountry}

// AllFields lists every canonical field in export order.
var AllFields = []Field{
	FieldUPC,
	FieldManufacturer,
	FieldModel,
	FieldType,
	FieldCaliber,
	FieldImporter,
	FieldCountry,
}

// IsCore reports whether f is one of the core attribute fields.
func (f Field) IsCore() bool {
	for _, c := range CoreFields {
		if c == f {
			return true
		}
	}
	return false
}

// CanonicalFieldSet is the de-aliased view of an upload row. Values are the
// raw (trimmed) text found under the first matching alias.
type CanonicalFieldSet struct {
	UPC          string `json:"upc"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	Caliber      string `json:"caliber"`
	Importer     string `json:"importer"`
	Country      string `json:"country"`
}

// Get returns the value stored under the given canonical field.
func (c CanonicalFieldSet) Get(f Field) string {
	switch f {
	case FieldUPC:
		return c.UPC
	case FieldManufacturer:
		return c.Manufacturer
	case FieldModel:
		return c.Model
	case FieldType:
		return c.Type
	case FieldCaliber:
		return c.Caliber
	case FieldImporter:
		return c.Importer
	case FieldCountry:
		return c.Country
	}
	return ""
}

// Set stores v under the given canonical field. Unknown fields are ignored.
func (c *CanonicalFieldSet) Set(f Field, v string) {
	switch f {
	case FieldUPC:
		c.UPC = v
	case FieldManufacturer:
		c.Manufacturer = v
	case FieldModel:
		c.Model = v
	case FieldType:
		c.Type = v
	case FieldCaliber:
		c.Caliber = v
	case FieldImporter:
		c.Importer = v
	case FieldCountry:
		c.Country = v
	}
}
