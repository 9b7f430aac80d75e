package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogUpsert = UpsertConfig{
	Table:        "catalog_records",
	Columns:      []string{"id", "upc", "manufacturer"},
	ConflictKeys: []string{"id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, catalogUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "catalog_records",
		ConflictKeys: []string{"id"},
	}, [][]any{{"1", "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "catalog_records",
		Columns: []string{"id", "upc"},
	}, [][]any{{"1", "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_catalog_records"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_catalog_records"}, catalogUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog_records"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rows := [][]any{{"1", "012345678905", "Acme"}, {"2", "", "Glock"}}
	n, err := BulkUpsert(context.Background(), mock, catalogUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_catalog_records"}, catalogUpsert.Columns).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, catalogUpsert, [][]any{{"1", "", "Acme"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy staged rows for catalog_records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"catalog.records", `"catalog"."records"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier(tt.input).Sanitize())
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"id", "upc", "manufacturer"})
	assert.Equal(t, `"id", "upc", "manufacturer"`, result)
}

func TestUpsertConfig_MergeSQL(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "catalog_records" ("id", "upc", "manufacturer") SELECT "id", "upc", "manufacturer" `+
			`FROM "_tmp_upsert_catalog_records" ON CONFLICT ("id") DO UPDATE SET "upc" = EXCLUDED."upc", `+
			`"manufacturer" = EXCLUDED."manufacturer"`,
		catalogUpsert.mergeSQL())

	onlyUPC := catalogUpsert
	onlyUPC.UpdateCols = []string{"upc"}
	assert.Equal(t, []string{"upc"}, onlyUPC.updateColumns())
	assert.Contains(t, onlyUPC.mergeSQL(), `DO UPDATE SET "upc" = EXCLUDED."upc"`)
}

func TestUpsertConfig_StagingTableSchemaQualified(t *testing.T) {
	cfg := UpsertConfig{Table: "inventory.catalog_records"}
	assert.Equal(t, `"_tmp_upsert_inventory_catalog_records"`, cfg.stagingTable().Sanitize())
}
