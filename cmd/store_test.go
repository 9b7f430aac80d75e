package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-verify/internal/config"
)

func TestInitStore_SQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()

	st, err := initStore(ctx, sqliteConfig(t), true)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInitStore_Fixture(t *testing.T) {
	ctx := context.Background()
	c, _ := fixtureConfig(t)

	st, err := initStore(ctx, c, true)
	require.NoError(t, err)
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInitStore_FixtureIgnoredForWrites(t *testing.T) {
	c, _ := fixtureConfig(t)
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = sqliteConfig(t).Store.DatabaseURL

	st, err := initStore(context.Background(), c, false)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	bad := &config.Config{}
	bad.Store.Driver = "mysql"

	_, err := initStore(context.Background(), bad, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestLoaderConfig(t *testing.T) {
	c := &config.Config{}
	c.Catalog.PageSize = 10
	c.Catalog.FetchChunk = 20
	c.Catalog.FetchConcurrency = 3

	lc := loaderConfig(c)
	assert.Equal(t, 10, lc.PageSize)
	assert.Equal(t, 20, lc.FetchChunk)
	assert.Equal(t, 3, lc.Concurrency)
}
