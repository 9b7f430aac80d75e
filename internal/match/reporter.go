package match

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-verify/internal/model"
)

// Reporter receives matching diagnostics. Implementations must not alter
// results; the matcher never writes diagnostics anywhere else.
type Reporter interface {
	IndexBuilt(stats IndexStats)
	RowResolved(row model.CanonicalFieldSet, result model.MatchResult)
}

// NopReporter discards all diagnostics.
type NopReporter struct{}

func (NopReporter) IndexBuilt(IndexStats)                                   {}
func (NopReporter) RowResolved(model.CanonicalFieldSet, model.MatchResult) {}

// ZapReporter logs diagnostics through zap. Unverified rows are logged at
// debug level, at most SampleLimit per status.
type ZapReporter struct {
	log         *zap.Logger
	sampleLimit int

	mu      sync.Mutex
	samples map[model.Status]int
}

// NewZapReporter creates a ZapReporter. A nil logger uses zap.L().
func NewZapReporter(log *zap.Logger, sampleLimit int) *ZapReporter {
	if log == nil {
		log = zap.L()
	}
	return &ZapReporter{
		log:         log.With(zap.String("component", "matcher")),
		sampleLimit: sampleLimit,
		samples:     make(map[model.Status]int),
	}
}

func (z *ZapReporter) IndexBuilt(stats IndexStats) {
	z.log.Info("catalog index built",
		zap.Int("records", stats.Records),
		zap.Int("upc_keys", stats.UPCKeys),
		zap.Int("attribute_keys", stats.AttributeKeys),
		zap.Int("make_model_keys", stats.MakeModelKeys),
	)
}

func (z *ZapReporter) RowResolved(row model.CanonicalFieldSet, result model.MatchResult) {
	if result.Status.IsVerified() {
		return
	}

	z.mu.Lock()
	n := z.samples[result.Status]
	if n >= z.sampleLimit {
		z.mu.Unlock()
		return
	}
	z.samples[result.Status] = n + 1
	z.mu.Unlock()

	fields := make([]string, len(result.MismatchedFields))
	for i, f := range result.MismatchedFields {
		fields[i] = string(f)
	}
	z.log.Debug("row not verified",
		zap.String("status", string(result.Status)),
		zap.String("matched_by", string(result.MatchedBy)),
		zap.String("catalog_id", result.CatalogID),
		zap.String("upc", row.UPC),
		zap.String("manufacturer", row.Manufacturer),
		zap.String("model", row.Model),
		zap.Strings("mismatched", fields),
	)
}
