package model

// CatalogRecord is one authoritative product entry from the reference catalog.
// Several records may share a UPC or an attribute tuple.
type CatalogRecord struct {
	ID           string `json:"id" yaml:"id"`
	UPC          string `json:"upc" yaml:"upc"`
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	Model        string `json:"model" yaml:"model"`
	Type         string `json:"type" yaml:"type"`
	Caliber      string `json:"caliber" yaml:"caliber"`
	Importer     string `json:"importer,omitempty" yaml:"importer,omitempty"`
	Country      string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Fields returns the record as a canonical field set so it can be compared
// field by field against an upload row.
func (r CatalogRecord) Fields() CanonicalFieldSet {
	return CanonicalFieldSet{
		UPC:          r.UPC,
		Manufacturer: r.Manufacturer,
		Model:        r.Model,
		Type:         r.Type,
		Caliber:      r.Caliber,
		Importer:     r.Importer,
		Country:      r.Country,
	}
}
