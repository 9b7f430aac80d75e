package catalog

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// LoaderConfig controls how a catalog snapshot is fetched.
type LoaderConfig struct {
	PageSize    int
	FetchChunk  int
	Concurrency int
}

// DefaultLoaderConfig returns the loader settings used when none are configured.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{PageSize: 1000, FetchChunk: 500, Concurrency: 4}
}

// Snapshot is the catalog data fetched for one run. It is never shared
// between runs.
type Snapshot struct {
	ByUPC   []model.CatalogRecord
	Scanned []model.CatalogRecord
	Stats   model.FetchStats
}

// Len returns the number of fetched records, duplicates included.
func (s *Snapshot) Len() int {
	return len(s.ByUPC) + len(s.Scanned)
}

// Loader fetches the catalog records a set of upload rows needs.
type Loader struct {
	store Store
	cfg   LoaderConfig
	log   *zap.Logger
}

// NewLoader creates a Loader over store. Zero config values fall back to
// DefaultLoaderConfig.
func NewLoader(store Store, cfg LoaderConfig) *Loader {
	def := DefaultLoaderConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.FetchChunk <= 0 {
		cfg.FetchChunk = def.FetchChunk
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Loader{
		store: store,
		cfg:   cfg,
		log:   zap.L().With(zap.String("component", "catalog.loader")),
	}
}

// Load fetches records for rows. Identifiers are fetched in concurrent
// chunks; when any row has no identifier, or one the catalog does not
// contain, the whole catalog is paged in as well so attribute fallback sees
// every record. Any store error aborts the load. A snapshot with no records
// returns ErrEmptyCatalog.
func (l *Loader) Load(ctx context.Context, rows []model.CanonicalFieldSet) (*Snapshot, error) {
	snap := &Snapshot{}

	keys, needScan := upcKeys(rows)
	snap.Stats.IdentifierKeys = len(keys)

	byUPC, err := l.fetchByUPC(ctx, keys)
	if err != nil {
		return nil, err
	}
	snap.ByUPC = byUPC
	snap.Stats.RecordsByUPC = len(byUPC)

	if !needScan {
		found := make(map[string]bool, len(byUPC))
		for _, r := range byUPC {
			found[normalize.UPCKey(r.UPC)] = true
		}
		for _, k := range keys {
			if !found[k] {
				needScan = true
				break
			}
		}
	}

	if needScan {
		if err := l.scanAll(ctx, snap); err != nil {
			return nil, err
		}
	}

	if snap.Len() == 0 {
		return nil, ErrEmptyCatalog
	}

	l.log.Info("catalog snapshot loaded",
		zap.Int("identifier_keys", snap.Stats.IdentifierKeys),
		zap.Int("records_by_upc", snap.Stats.RecordsByUPC),
		zap.Int("records_scanned", snap.Stats.RecordsScanned),
		zap.Int("pages_scanned", snap.Stats.PagesScanned),
		zap.Bool("full_scan", snap.Stats.FullScanPerformed),
	)
	return snap, nil
}

func (l *Loader) fetchByUPC(ctx context.Context, keys []string) ([]model.CatalogRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	var chunks [][]string
	for start := 0; start < len(keys); start += l.cfg.FetchChunk {
		chunks = append(chunks, keys[start:min(start+l.cfg.FetchChunk, len(keys))])
	}

	results := make([][]model.CatalogRecord, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			recs, err := l.store.FetchByUPC(gctx, chunk)
			if err != nil {
				return eris.Wrapf(err, "catalog: fetch identifiers (chunk %d of %d)", i+1, len(chunks))
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.CatalogRecord
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

func (l *Loader) scanAll(ctx context.Context, snap *Snapshot) error {
	snap.Stats.FullScanPerformed = true
	after := ""
	for {
		page, err := l.store.ScanPage(ctx, after, l.cfg.PageSize)
		if err != nil {
			return eris.Wrapf(err, "catalog: scan page %d", snap.Stats.PagesScanned+1)
		}
		snap.Stats.PagesScanned++
		snap.Scanned = append(snap.Scanned, page...)
		snap.Stats.RecordsScanned += len(page)

		if len(page) < l.cfg.PageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

// upcKeys returns the distinct identifier keys of rows in first-seen order,
// and whether any row has no identifier.
func upcKeys(rows []model.CanonicalFieldSet) ([]string, bool) {
	seen := make(map[string]bool, len(rows))
	var keys []string
	missing := false
	for _, r := range rows {
		k := normalize.UPCKey(r.UPC)
		if k == "" {
			missing = true
			continue
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, missing
}
