package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-verify/internal/catalog/mocks"
	"github.com/sells-group/catalog-verify/internal/model"
)

func rowWithUPC(upc string) model.CanonicalFieldSet {
	return model.CanonicalFieldSet{UPC: upc, Manufacturer: "Acme", Model: "Trailblazer", Type: "Rifle", Caliber: "9mm"}
}

func TestLoader_IdentifiersOnly(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("FetchByUPC", mock.Anything, []string{"12345678905"}).
		Return([]model.CatalogRecord{{ID: "1", UPC: "12345678905"}}, nil)

	l := NewLoader(st, LoaderConfig{})
	snap, err := l.Load(context.Background(), []model.CanonicalFieldSet{
		rowWithUPC("012345678905"),
		rowWithUPC("12345678905"),
	})
	require.NoError(t, err)

	assert.Len(t, snap.ByUPC, 1)
	assert.Empty(t, snap.Scanned)
	assert.Equal(t, model.FetchStats{IdentifierKeys: 1, RecordsByUPC: 1}, snap.Stats)
}

func TestLoader_ChunksIdentifiers(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("FetchByUPC", mock.Anything, []string{"1", "2"}).
		Return([]model.CatalogRecord{{ID: "a", UPC: "1"}, {ID: "b", UPC: "2"}}, nil).Once()
	st.On("FetchByUPC", mock.Anything, []string{"3"}).
		Return([]model.CatalogRecord{{ID: "c", UPC: "3"}}, nil).Once()

	l := NewLoader(st, LoaderConfig{FetchChunk: 2, Concurrency: 2})
	snap, err := l.Load(context.Background(), []model.CanonicalFieldSet{
		rowWithUPC("1"), rowWithUPC("2"), rowWithUPC("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.ByUPC))
}

func TestLoader_ScansWhenRowLacksIdentifier(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("FetchByUPC", mock.Anything, []string{"111"}).
		Return([]model.CatalogRecord{{ID: "a", UPC: "111"}}, nil)
	st.On("ScanPage", mock.Anything, "", 2).
		Return([]model.CatalogRecord{{ID: "a"}, {ID: "b"}}, nil)
	st.On("ScanPage", mock.Anything, "b", 2).
		Return([]model.CatalogRecord{{ID: "c"}}, nil)

	l := NewLoader(st, LoaderConfig{PageSize: 2})
	snap, err := l.Load(context.Background(), []model.CanonicalFieldSet{rowWithUPC("111"), rowWithUPC("")})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.Scanned))
	assert.True(t, snap.Stats.FullScanPerformed)
	assert.Equal(t, 2, snap.Stats.PagesScanned)
	assert.Equal(t, 3, snap.Stats.RecordsScanned)
	assert.Equal(t, 4, snap.Len())
}

func TestLoader_ScansWhenIdentifierUnresolved(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("FetchByUPC", mock.Anything, []string{"999"}).Return(nil, nil)
	st.On("ScanPage", mock.Anything, "", 1000).
		Return([]model.CatalogRecord{{ID: "a", Manufacturer: "Acme"}}, nil)

	snap, err := NewLoader(st, LoaderConfig{}).Load(context.Background(), []model.CanonicalFieldSet{rowWithUPC("999")})
	require.NoError(t, err)
	assert.True(t, snap.Stats.FullScanPerformed)
	assert.Len(t, snap.Scanned, 1)
}

func TestLoader_EmptyCatalogIsFatal(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("ScanPage", mock.Anything, "", 1000).Return(nil, nil)

	_, err := NewLoader(st, LoaderConfig{}).Load(context.Background(), []model.CanonicalFieldSet{rowWithUPC("")})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestLoader_FetchErrorIsFatal(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("FetchByUPC", mock.Anything, []string{"111"}).Return(nil, errors.New("connection refused"))

	snap, err := NewLoader(st, LoaderConfig{}).Load(context.Background(), []model.CanonicalFieldSet{rowWithUPC("111")})
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "catalog: fetch identifiers")
}

func TestLoader_ScanErrorIsFatal(t *testing.T) {
	st := mocks.NewMockStore(t)
	st.On("ScanPage", mock.Anything, "", 1000).Return(nil, errors.New("timeout"))

	snap, err := NewLoader(st, LoaderConfig{}).Load(context.Background(), []model.CanonicalFieldSet{rowWithUPC("")})
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "catalog: scan page 1")
}

func TestLoader_WithMemoryStore(t *testing.T) {
	st := NewMemory(sampleRecords())
	snap, err := NewLoader(st, LoaderConfig{PageSize: 3}).Load(context.Background(), []model.CanonicalFieldSet{
		rowWithUPC("12345678905"),
		{Manufacturer: "Glock", Model: "19"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(snap.ByUPC))
	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, ids(snap.Scanned))
}

func TestUpcKeys(t *testing.T) {
	keys, missing := upcKeys([]model.CanonicalFieldSet{
		{UPC: "0123"}, {UPC: "123"}, {UPC: "n/a"}, {UPC: "456"},
	})
	assert.Equal(t, []string{"123", "456"}, keys)
	assert.True(t, missing)
}
