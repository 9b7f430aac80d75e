package model

import (
	"strings"
	"time"
)

// Status is the verdict for a single upload row.
type Status string

const (
	StatusVerifiedIdentifier Status = "VERIFIED (identifier & attribute match)"
	StatusVerifiedAttributes Status = "VERIFIED (attribute match)"
	StatusNotVerified        Status = "NOT VERIFIED"
	StatusAmbiguous          Status = "NOT VERIFIED (ambiguous match)"
	StatusUnknown            Status = "UNKNOWN"
)

// Statuses lists every status in report order.
var Statuses = []Status{
	StatusVerifiedIdentifier,
	StatusVerifiedAttributes,
	StatusNotVerified,
	StatusAmbiguous,
	StatusUnknown,
}

// IsVerified reports whether the row agreed with the catalog.
func (s Status) IsVerified() bool {
	return strings.HasPrefix(string(s), "VERIFIED")
}

// MatchedBy describes how the comparison target was found.
type MatchedBy string

const (
	MatchedByIdentifier MatchedBy = "identifier"
	MatchedByAttributes MatchedBy = "attributes"
	MatchedByPartial    MatchedBy = "partial"
	MatchedByNone       MatchedBy = "none"
)

// Mismatch reasons shared by the matcher and its consumers.
const (
	ReasonMissingValue       = "missing value"
	ReasonNoCatalogMatch     = "no catalog match"
	ReasonClosestDiffers     = "closest catalog match differs"
	ReasonIdentifierNotFound = "identifier not found in catalog"
	ReasonIdentifierFallback = "identifier not found in catalog; matched by attributes"
)

// FieldMeta explains why a field disagrees with the catalog.
type FieldMeta struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason"`
}

// MatchResult is the verdict and mismatch detail for one row.
type MatchResult struct {
	Status           Status              `json:"status"`
	MatchedBy        MatchedBy           `json:"matched_by"`
	CatalogID        string              `json:"catalog_id,omitempty"`
	MismatchedFields []Field             `json:"mismatched_fields,omitempty"`
	FieldMeta        map[Field]FieldMeta `json:"field_meta,omitempty"`
}

// AddMismatch records a disagreeing field, keeping first-seen order.
func (m *MatchResult) AddMismatch(f Field, meta FieldMeta) {
	if m.FieldMeta == nil {
		m.FieldMeta = make(map[Field]FieldMeta)
	}
	if _, ok := m.FieldMeta[f]; !ok {
		m.MismatchedFields = append(m.MismatchedFields, f)
	}
	m.FieldMeta[f] = meta
}

// ResultRow is an upload row joined with its canonical view and verdict.
type ResultRow struct {
	Index       int               `json:"index"`
	Canonical   CanonicalFieldSet `json:"canonical"`
	Passthrough map[string]string `json:"passthrough"`
	Result      MatchResult       `json:"result"`
}

// Summary counts rows per status.
type Summary struct {
	Total  int            `json:"total"`
	Counts map[Status]int `json:"counts"`
}

// Verified returns the number of rows with a verified status.
func (s Summary) Verified() int {
	return s.Counts[StatusVerifiedIdentifier] + s.Counts[StatusVerifiedAttributes]
}

// Summarize counts the statuses of rows.
func Summarize(rows []ResultRow) Summary {
	s := Summary{Total: len(rows), Counts: make(map[Status]int, len(Statuses))}
	for _, r := range rows {
		s.Counts[r.Result.Status]++
	}
	return s
}

// FetchStats records how the catalog snapshot for a run was assembled.
type FetchStats struct {
	IdentifierKeys    int  `json:"identifier_keys"`
	RecordsByUPC      int  `json:"records_by_upc"`
	RecordsScanned    int  `json:"records_scanned"`
	PagesScanned      int  `json:"pages_scanned"`
	FullScanPerformed bool `json:"full_scan_performed"`
}

// VerificationRun is the complete output of one verification run. It is
// returned by value to whoever orchestrates the run; a new run replaces it.
type VerificationRun struct {
	ID          string      `json:"id"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
	Header      []string    `json:"header"`
	Rows        []ResultRow `json:"rows"`
	Summary     Summary     `json:"summary"`
	Stats       FetchStats  `json:"stats"`
}
