package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-verify/internal/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "catalog.db")
	return c
}

func TestRunImport_UpsertAndReplace(t *testing.T) {
	c := sqliteConfig(t)
	ctx := context.Background()
	dir := t.TempDir()

	st, err := initStore(ctx, c, false)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	seed := writeFile(t, dir, "catalog.csv",
		"id,UPC,Manufacturer,Model,Type,Caliber\n"+
			"c1,012345678905,Acme,Trailblazer,Rifle,9mm\n"+
			"c2,,Glock,19,Pistol,9mm\n")

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, st, importOptions{File: seed}, &out))
	assert.Contains(t, out.String(), "imported 2 catalog records")

	// Re-importing upserts by id.
	require.NoError(t, runImport(ctx, st, importOptions{File: seed}, &out))
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := st.FetchByUPC(ctx, []string{"12345678905"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].ID)

	replacement := writeFile(t, dir, "replacement.csv", "id,Manufacturer\nz1,Zastava\n")
	require.NoError(t, runImport(ctx, st, importOptions{File: replacement, Replace: true}, &out))
	n, err = st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunImport_RepeatedRowsWithoutID(t *testing.T) {
	c := sqliteConfig(t)
	ctx := context.Background()

	st, err := initStore(ctx, c, false)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	seed := writeFile(t, t.TempDir(), "catalog.csv",
		"UPC,Manufacturer,Model,Type,Caliber\n"+
			"111,Acme,A1,Rifle,9mm\n"+
			"111,Acme,A1,Rifle,9mm\n")

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, st, importOptions{File: seed, Replace: true}, &out))

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
