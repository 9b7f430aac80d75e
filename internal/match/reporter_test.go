package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/catalog-verify/internal/model"
)

func TestZapReporter_IndexBuilt(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewZapReporter(zap.New(core), 5)

	r.IndexBuilt(IndexStats{Records: 10, UPCKeys: 8})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "catalog index built", entry.Message)
	assert.Equal(t, int64(10), entry.ContextMap()["records"])
	assert.Equal(t, "matcher", entry.ContextMap()["component"])
}

func TestZapReporter_SkipsVerifiedRows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewZapReporter(zap.New(core), 5)

	r.RowResolved(acmeRow("1"), model.MatchResult{Status: model.StatusVerifiedIdentifier})
	assert.Equal(t, 0, logs.Len())
}

func TestZapReporter_SamplesPerStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewZapReporter(zap.New(core), 2)

	for i := 0; i < 5; i++ {
		r.RowResolved(acmeRow(""), model.MatchResult{Status: model.StatusUnknown})
	}
	r.RowResolved(acmeRow(""), model.MatchResult{
		Status:           model.StatusNotVerified,
		MismatchedFields: []model.Field{model.FieldCaliber},
	})

	assert.Equal(t, 3, logs.Len())
	last := logs.All()[2]
	assert.Equal(t, "row not verified", last.Message)
	assert.Equal(t, string(model.StatusNotVerified), last.ContextMap()["status"])
}

func TestNopReporter(t *testing.T) {
	var r Reporter = NopReporter{}
	r.IndexBuilt(IndexStats{})
	r.RowResolved(model.CanonicalFieldSet{}, model.MatchResult{})
}
