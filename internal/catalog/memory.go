package catalog

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/normalize"
)

// Fixture is the on-disk YAML layout of an offline catalog.
type Fixture struct {
	Records []model.CatalogRecord `yaml:"records"`
}

// MemoryStore is an in-process Store used for offline runs and tests.
// Records are kept sorted by id so paging matches the SQL stores.
type MemoryStore struct {
	mu      sync.RWMutex
	records []model.CatalogRecord
}

// NewMemory returns a MemoryStore holding records.
func NewMemory(records []model.CatalogRecord) *MemoryStore {
	s := &MemoryStore{}
	s.set(records)
	return s
}

// LoadFixture reads a YAML catalog fixture from path.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read fixture %s", path)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse fixture %s", path)
	}
	for i := range f.Records {
		if f.Records[i].ID == "" {
			return nil, eris.Errorf("catalog: fixture %s: record %d has no id", path, i+1)
		}
	}
	return NewMemory(f.Records), nil
}

func (s *MemoryStore) set(records []model.CatalogRecord) {
	s.records = dedupeByID(records)
	sort.Slice(s.records, func(i, j int) bool { return s.records[i].ID < s.records[j].ID })
}

func (s *MemoryStore) FetchByUPC(_ context.Context, keys []string) ([]model.CatalogRecord, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CatalogRecord
	for _, r := range s.records {
		if k := normalize.UPCKey(r.UPC); k != "" && want[k] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) ScanPage(_ context.Context, afterID string, limit int) ([]model.CatalogRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := sort.Search(len(s.records), func(i int) bool { return s.records[i].ID > afterID })
	end := min(start+limit, len(s.records))
	if start >= end {
		return nil, nil
	}
	return append([]model.CatalogRecord(nil), s.records[start:end]...), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Insert(_ context.Context, records []model.CatalogRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(append(append([]model.CatalogRecord(nil), s.records...), records...))
	return int64(len(records)), nil
}

func (s *MemoryStore) Replace(_ context.Context, records []model.CatalogRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(records)
	return int64(len(records)), nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
