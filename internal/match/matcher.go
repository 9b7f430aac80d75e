// Package match resolves upload rows to catalog records and reconciles them
// field by field.
package match

import (
	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// Matcher resolves rows against one immutable Index.
type Matcher struct {
	idx      *Index
	reporter Reporter
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithReporter routes diagnostics to r.
func WithReporter(r Reporter) Option {
	return func(m *Matcher) {
		if r != nil {
			m.reporter = r
		}
	}
}

// New creates a Matcher over idx.
func New(idx *Index, opts ...Option) *Matcher {
	m := &Matcher{idx: idx, reporter: NopReporter{}}
	for _, opt := range opts {
		opt(m)
	}
	m.reporter.IndexBuilt(idx.Stats())
	return m
}

// Match resolves a single row. It always yields a result.
func (m *Matcher) Match(row model.CanonicalFieldSet) model.MatchResult {
	res := m.resolve(row)
	m.reporter.RowResolved(row, res)
	return res
}

func (m *Matcher) resolve(row model.CanonicalFieldSet) model.MatchResult {
	hasUPC := normalize.UPCKey(row.UPC) != ""

	if hasUPC {
		if candidates := m.idx.ByUPC(row.UPC); len(candidates) > 0 {
			return matchByIdentifier(row, candidates)
		}
	}

	if candidates := m.idx.ByAttributes(row); len(candidates) > 0 {
		return matchByAttributes(row, candidates, hasUPC)
	}

	if candidates := m.idx.ByMakeModel(row); len(candidates) > 0 {
		return matchPartial(row, candidates, hasUPC)
	}

	return unknown(row)
}

// matchByIdentifier compares row against the identifier candidate whose
// attribute tuple matches exactly, or the first candidate when none does.
func matchByIdentifier(row model.CanonicalFieldSet, candidates []model.CatalogRecord) model.MatchResult {
	target := candidates[0]
	if key := normalize.AttributeKey(row); key != "" {
		for _, c := range candidates {
			if normalize.AttributeKey(c.Fields()) == key {
				target = c
				break
			}
		}
	}

	res := model.MatchResult{MatchedBy: model.MatchedByIdentifier, CatalogID: target.ID}
	compareRecord(&res, row, target, model.CoreFields)
	compareRecord(&res, row, target, model.OptionalFields)
	if len(res.MismatchedFields) == 0 {
		res.Status = model.StatusVerifiedIdentifier
	} else {
		res.Status = model.StatusNotVerified
	}
	return res
}

// matchByAttributes handles rows whose identifier is absent or unresolved but
// whose normalized core tuple matches catalog records exactly. An identifier
// that failed to resolve is always surfaced.
func matchByAttributes(row model.CanonicalFieldSet, candidates []model.CatalogRecord, hasUPC bool) model.MatchResult {
	res := model.MatchResult{MatchedBy: model.MatchedByAttributes}
	if len(candidates) > 1 {
		res.Status = model.StatusAmbiguous
		return res
	}

	target := candidates[0]
	res.CatalogID = target.ID
	res.Status = model.StatusVerifiedAttributes
	if hasUPC {
		res.Status = model.StatusNotVerified
		res.AddMismatch(model.FieldUPC, model.FieldMeta{
			Expected: target.UPC,
			Actual:   row.UPC,
			Reason:   model.ReasonIdentifierFallback,
		})
	}
	return res
}

// matchPartial reports the core fields where the closest candidate sharing
// row's manufacturer and model disagrees. Candidates always agree on those
// two fields, so at least two core fields match.
func matchPartial(row model.CanonicalFieldSet, candidates []model.CatalogRecord, hasUPC bool) model.MatchResult {
	best, matched := Rank(row, candidates)
	target := candidates[best]

	// Every core field agrees once containment is allowed: treat the
	// candidates that agree fully like exact attribute candidates.
	if matched == len(model.CoreFields) {
		var full []model.CatalogRecord
		for _, c := range candidates[best:] {
			if CountCoreMatches(row, c) == matched {
				full = append(full, c)
			}
		}
		return matchByAttributes(row, full, hasUPC)
	}

	res := model.MatchResult{
		Status:    model.StatusNotVerified,
		MatchedBy: model.MatchedByPartial,
		CatalogID: target.ID,
	}
	if hasUPC {
		res.AddMismatch(model.FieldUPC, model.FieldMeta{
			Expected: target.UPC,
			Actual:   row.UPC,
			Reason:   model.ReasonIdentifierNotFound,
		})
	}
	want := target.Fields()
	for _, f := range model.CoreFields {
		if CompareField(f, row.Get(f), want.Get(f)).Match {
			continue
		}
		res.AddMismatch(f, model.FieldMeta{
			Expected: want.Get(f),
			Actual:   row.Get(f),
			Reason:   model.ReasonClosestDiffers,
		})
	}
	return res
}

func unknown(row model.CanonicalFieldSet) model.MatchResult {
	res := model.MatchResult{Status: model.StatusUnknown, MatchedBy: model.MatchedByNone}
	for _, f := range model.CoreFields {
		res.AddMismatch(f, model.FieldMeta{
			Actual: row.Get(f),
			Reason: model.ReasonNoCatalogMatch,
		})
	}
	return res
}
