// Package verify runs a complete verification: canonicalize upload rows,
// fetch a catalog snapshot, build indexes and match every row.
package verify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-verify/internal/catalog"
	"github.com/sells-group/catalog-verify/internal/match"
	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// ErrEmptyUpload is returned for uploads without data rows.
var ErrEmptyUpload = eris.New("verify: upload has no rows")

// defaultSampleLimit bounds per-status diagnostic logging per run.
const defaultSampleLimit = 20

// Service runs verifications against a catalog store. It holds no per-run
// state and may be used concurrently.
type Service struct {
	store     catalog.Store
	loaderCfg catalog.LoaderConfig
	reporter  func() match.Reporter
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithReporter makes every run report through r instead of the zap reporter.
func WithReporter(r match.Reporter) Option {
	return func(s *Service) {
		s.reporter = func() match.Reporter { return r }
	}
}

// WithClock overrides the run timestamps source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over store.
func NewService(store catalog.Store, cfg catalog.LoaderConfig, opts ...Option) *Service {
	s := &Service{
		store:     store,
		loaderCfg: cfg,
		reporter: func() match.Reporter {
			return match.NewZapReporter(zap.L(), defaultSampleLimit)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run verifies every row of upload. It either returns a result for every
// row or an error and no results.
func (s *Service) Run(ctx context.Context, upload model.Upload) (*model.VerificationRun, error) {
	if len(upload.Rows) == 0 {
		return nil, ErrEmptyUpload
	}

	run := &model.VerificationRun{
		ID:        uuid.New().String(),
		StartedAt: s.now().UTC(),
		Header:    append([]string(nil), upload.Header...),
	}
	log := zap.L().With(zap.String("component", "verify"), zap.String("run_id", run.ID))

	rows := make([]model.ResultRow, len(upload.Rows))
	canonical := make([]model.CanonicalFieldSet, len(upload.Rows))
	for i, r := range upload.Rows {
		c, passthrough := normalize.Canonicalize(r)
		canonical[i] = c
		rows[i] = model.ResultRow{Index: r.Index, Canonical: c, Passthrough: passthrough}
	}

	snap, err := catalog.NewLoader(s.store, s.loaderCfg).Load(ctx, canonical)
	if err != nil {
		log.Error("catalog fetch failed", zap.Error(err))
		return nil, eris.Wrap(err, "verify: load catalog")
	}

	m := match.New(match.NewIndex(snap.ByUPC, snap.Scanned), match.WithReporter(s.reporter()))
	for i := range rows {
		rows[i].Result = m.Match(rows[i].Canonical)
	}

	run.Rows = rows
	run.Summary = model.Summarize(rows)
	run.Stats = snap.Stats
	run.CompletedAt = s.now().UTC()

	log.Info("verification complete",
		zap.Int("rows", run.Summary.Total),
		zap.Int("verified", run.Summary.Verified()),
		zap.Int("unknown", run.Summary.Counts[model.StatusUnknown]),
		zap.Duration("elapsed", run.CompletedAt.Sub(run.StartedAt)),
	)
	return run, nil
}
