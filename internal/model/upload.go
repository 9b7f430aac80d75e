package model

// UploadRow is one data row of an uploaded inventory file. Fields maps the
// column header (as uploaded, surrounding whitespace trimmed) to its raw value.
type UploadRow struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
}

// Upload is a parsed inventory file.
type Upload struct {
	// Header keeps the uploaded column order for passthrough and export.
	Header []string    `json:"header"`
	Rows   []UploadRow `json:"rows"`
}
