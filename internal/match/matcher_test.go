package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-verify/internal/model"
)

func acmeRecord(id, upc string) model.CatalogRecord {
	return model.CatalogRecord{
		ID:           id,
		UPC:          upc,
		Manufacturer: "Acme Corp",
		Model:        "X100",
		Type:         "Pistol",
		Caliber:      "9mm",
	}
}

func acmeRow(upc string) model.CanonicalFieldSet {
	return model.CanonicalFieldSet{
		UPC:          upc,
		Manufacturer: "Acme Corp",
		Model:        "X100",
		Type:         "Pistol",
		Caliber:      "9mm",
	}
}

func newMatcher(records ...model.CatalogRecord) *Matcher {
	return New(NewIndex(records))
}

func TestMatch_IdentifierLeadingZero(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	res := m.Match(acmeRow("012345678905"))
	assert.Equal(t, model.StatusVerifiedIdentifier, res.Status)
	assert.Equal(t, model.MatchedByIdentifier, res.MatchedBy)
	assert.Equal(t, "1", res.CatalogID)
	assert.Empty(t, res.MismatchedFields)
	assert.Empty(t, res.FieldMeta)
}

func TestMatch_IdentifierWithFormatting(t *testing.T) {
	m := newMatcher(acmeRecord("1", "012345678905"))

	res := m.Match(acmeRow("0-12345-67890-5"))
	assert.Equal(t, model.StatusVerifiedIdentifier, res.Status)
}

func TestMatch_AttributeOnly(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	res := m.Match(acmeRow(""))
	assert.Equal(t, model.StatusVerifiedAttributes, res.Status)
	assert.Equal(t, model.MatchedByAttributes, res.MatchedBy)
	assert.Equal(t, "1", res.CatalogID)
	assert.Empty(t, res.MismatchedFields)
}

func TestMatch_AttributeNormalization(t *testing.T) {
	m := newMatcher(model.CatalogRecord{
		ID: "1", Manufacturer: "ACME CORP, L.L.C.", Model: "Model X-100", Type: "Pistol Firearm", Caliber: "Cal 9mm",
	})

	res := m.Match(model.CanonicalFieldSet{Manufacturer: "Acme Corp LLC", Model: "X100", Type: "pistol", Caliber: "9 MM"})
	assert.Equal(t, model.StatusVerifiedAttributes, res.Status)
}

func TestMatch_IdentifierCaliberMismatch(t *testing.T) {
	rec := acmeRecord("1", "12345678905")
	rec.Caliber = ".45 ACP"
	m := newMatcher(rec)

	res := m.Match(acmeRow("12345678905"))
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, []model.Field{model.FieldCaliber}, res.MismatchedFields)
	require.Contains(t, res.FieldMeta, model.FieldCaliber)
	meta := res.FieldMeta[model.FieldCaliber]
	assert.Equal(t, ".45 ACP", meta.Expected)
	assert.Equal(t, "9mm", meta.Actual)
	assert.Equal(t, `Expected ".45 ACP"`, meta.Reason)
}

func TestMatch_IdentifierOptionalFieldMismatch(t *testing.T) {
	rec := acmeRecord("1", "12345678905")
	rec.Importer = "Century Arms"
	rec.Country = "Austria"
	m := newMatcher(rec)

	row := acmeRow("12345678905")
	row.Importer = "Century Arms"
	row.Country = "Germany"

	res := m.Match(row)
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, []model.Field{model.FieldCountry}, res.MismatchedFields)
}

func TestMatch_IdentifierMissingValue(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	row := acmeRow("12345678905")
	row.Type = ""

	res := m.Match(row)
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, []model.Field{model.FieldType}, res.MismatchedFields)
	assert.Equal(t, model.ReasonMissingValue, res.FieldMeta[model.FieldType].Reason)
}

func TestMatch_IdentifierCatalogBlankIsNotConflict(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	row := acmeRow("12345678905")
	row.Importer = "Century Arms"

	res := m.Match(row)
	assert.Equal(t, model.StatusVerifiedIdentifier, res.Status)
}

func TestMatch_IdentifierMismatchOrderFollowsFields(t *testing.T) {
	rec := model.CatalogRecord{ID: "1", UPC: "111", Manufacturer: "Ruger", Model: "10/22", Type: "Rifle", Caliber: "22LR", Country: "USA"}
	m := newMatcher(rec)

	res := m.Match(model.CanonicalFieldSet{UPC: "111", Manufacturer: "Glock", Model: "10/22", Type: "Pistol", Caliber: "22LR", Country: "Austria"})
	assert.Equal(t, []model.Field{model.FieldManufacturer, model.FieldType, model.FieldCountry}, res.MismatchedFields)
}

func TestMatch_NoCandidatesUnknown(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	res := m.Match(model.CanonicalFieldSet{Manufacturer: "Glock", Model: "19", Type: "Pistol", Caliber: "9mm"})
	assert.Equal(t, model.StatusUnknown, res.Status)
	assert.Equal(t, model.MatchedByNone, res.MatchedBy)
	assert.Equal(t, model.CoreFields, res.MismatchedFields)
	for _, f := range model.CoreFields {
		assert.Equal(t, model.ReasonNoCatalogMatch, res.FieldMeta[f].Reason)
	}
	assert.Equal(t, "Glock", res.FieldMeta[model.FieldManufacturer].Actual)
}

func TestMatch_EmptyRowUnknown(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	res := m.Match(model.CanonicalFieldSet{})
	assert.Equal(t, model.StatusUnknown, res.Status)
}

func TestMatch_DuplicateIdentifierPrefersExactAttributes(t *testing.T) {
	first := acmeRecord("1", "12345678905")
	first.Caliber = ".45 ACP"
	second := acmeRecord("2", "012345678905")
	m := newMatcher(first, second)

	res := m.Match(acmeRow("12345678905"))
	assert.Equal(t, "2", res.CatalogID)
	assert.Equal(t, model.StatusVerifiedIdentifier, res.Status)
}

func TestMatch_DuplicateIdentifierFallsBackToFirst(t *testing.T) {
	first := acmeRecord("1", "12345678905")
	first.Caliber = ".45 ACP"
	second := acmeRecord("2", "12345678905")
	second.Caliber = "10mm"
	m := newMatcher(first, second)

	res := m.Match(acmeRow("12345678905"))
	assert.Equal(t, "1", res.CatalogID)
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, []model.Field{model.FieldCaliber}, res.MismatchedFields)
}

func TestMatch_UnresolvedIdentifierMatchedByAttributes(t *testing.T) {
	m := newMatcher(acmeRecord("1", "12345678905"))

	res := m.Match(acmeRow("999999999999"))
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, model.MatchedByAttributes, res.MatchedBy)
	assert.Equal(t, []model.Field{model.FieldUPC}, res.MismatchedFields)
	meta := res.FieldMeta[model.FieldUPC]
	assert.Equal(t, "12345678905", meta.Expected)
	assert.Equal(t, "999999999999", meta.Actual)
	assert.Equal(t, model.ReasonIdentifierFallback, meta.Reason)
}

func TestMatch_AmbiguousAttributes(t *testing.T) {
	m := newMatcher(acmeRecord("1", "111"), acmeRecord("2", "222"))

	res := m.Match(acmeRow(""))
	assert.Equal(t, model.StatusAmbiguous, res.Status)
	assert.Empty(t, res.MismatchedFields)
	assert.Empty(t, res.CatalogID)
}

func TestMatch_SameRecordTwiceIsNotAmbiguous(t *testing.T) {
	rec := acmeRecord("1", "111")
	m := New(NewIndex([]model.CatalogRecord{rec}, []model.CatalogRecord{rec}))

	res := m.Match(acmeRow(""))
	assert.Equal(t, model.StatusVerifiedAttributes, res.Status)
}

func TestMatch_PartialClosestDiffers(t *testing.T) {
	rec := acmeRecord("1", "")
	rec.Caliber = ".45 ACP"
	m := newMatcher(rec)

	res := m.Match(acmeRow(""))
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, model.MatchedByPartial, res.MatchedBy)
	assert.Equal(t, "1", res.CatalogID)
	assert.Equal(t, []model.Field{model.FieldCaliber}, res.MismatchedFields)
	assert.Equal(t, model.ReasonClosestDiffers, res.FieldMeta[model.FieldCaliber].Reason)
	assert.Equal(t, ".45 ACP", res.FieldMeta[model.FieldCaliber].Expected)
}

func TestMatch_PartialPicksBestCandidate(t *testing.T) {
	worse := acmeRecord("1", "")
	worse.Type = "Rifle"
	worse.Caliber = ".45 ACP"
	better := acmeRecord("2", "")
	better.Caliber = "10mm"
	m := newMatcher(worse, better)

	res := m.Match(acmeRow(""))
	assert.Equal(t, "2", res.CatalogID)
	assert.Equal(t, []model.Field{model.FieldCaliber}, res.MismatchedFields)
}

func TestMatch_PartialReportsUnresolvedIdentifier(t *testing.T) {
	rec := acmeRecord("1", "111")
	rec.Caliber = ".45 ACP"
	m := newMatcher(rec)

	res := m.Match(acmeRow("999"))
	assert.Equal(t, model.StatusNotVerified, res.Status)
	assert.Equal(t, []model.Field{model.FieldUPC, model.FieldCaliber}, res.MismatchedFields)
	assert.Equal(t, model.ReasonIdentifierNotFound, res.FieldMeta[model.FieldUPC].Reason)
}

func TestMatch_PartialFullContainmentCountsAsAttributeMatch(t *testing.T) {
	rec := acmeRecord("1", "")
	rec.Type = "Semi-Auto Pistol"
	rec.Caliber = "9mm Luger"
	m := newMatcher(rec)

	res := m.Match(acmeRow(""))
	assert.Equal(t, model.StatusVerifiedAttributes, res.Status)
	assert.Equal(t, "1", res.CatalogID)
}

func TestMatch_DifferentModelIsUnknown(t *testing.T) {
	m := newMatcher(acmeRecord("1", ""))

	row := acmeRow("")
	row.Model = "Z9"
	res := m.Match(row)
	assert.Equal(t, model.StatusUnknown, res.Status)
	assert.Empty(t, res.CatalogID)
	assert.Equal(t, model.CoreFields, res.MismatchedFields)
	for _, f := range model.CoreFields {
		assert.Equal(t, model.ReasonNoCatalogMatch, res.FieldMeta[f].Reason)
	}
}

func TestMatch_ModelMarkerSpacingStillVerifies(t *testing.T) {
	rec := acmeRecord("1", "111")
	rec.Model = "ModelA1"
	m := newMatcher(rec)

	row := acmeRow("111")
	row.Model = "Model A1"
	res := m.Match(row)
	assert.Equal(t, model.StatusVerifiedIdentifier, res.Status)
	assert.Empty(t, res.MismatchedFields)
}

func TestMatch_ReporterReceivesEveryRow(t *testing.T) {
	r := &recordingReporter{}
	m := New(NewIndex([]model.CatalogRecord{acmeRecord("1", "111")}), WithReporter(r))

	m.Match(acmeRow("111"))
	m.Match(model.CanonicalFieldSet{Manufacturer: "Glock"})

	assert.Equal(t, 1, r.indexCalls)
	assert.Equal(t, 1, r.stats.Records)
	require.Len(t, r.results, 2)
	assert.Equal(t, model.StatusVerifiedIdentifier, r.results[0].Status)
	assert.Equal(t, model.StatusUnknown, r.results[1].Status)
}

type recordingReporter struct {
	indexCalls int
	stats      IndexStats
	results    []model.MatchResult
}

func (r *recordingReporter) IndexBuilt(stats IndexStats) {
	r.indexCalls++
	r.stats = stats
}

func (r *recordingReporter) RowResolved(_ model.CanonicalFieldSet, res model.MatchResult) {
	r.results = append(r.results, res)
}
