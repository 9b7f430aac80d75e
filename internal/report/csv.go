// Package report renders verification runs as CSV, JSON and text summaries.
package report

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-verify/internal/model"
)

// StatusColumn is the first column of every export.
const StatusColumn = "Status"

// Columns returns the export header for an upload header: Status, the
// upload columns in order, then any canonical field the upload did not
// already carry under its own name.
func Columns(header []string) []string {
	cols := make([]string, 0, len(header)+len(model.AllFields)+1)
	cols = append(cols, StatusColumn)
	cols = append(cols, header...)
	for _, f := range model.AllFields {
		if canonicalColumn(header, f) < 0 {
			cols = append(cols, string(f))
		}
	}
	return cols
}

// WriteCSV writes run as CSV with every value quoted. Canonical values
// replace same-named upload values; match metadata is not exported.
func WriteCSV(w io.Writer, run *model.VerificationRun) error {
	cols := Columns(run.Header)
	bw := bufio.NewWriter(w)

	if err := writeQuoted(bw, cols); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	fieldAt := make(map[int]model.Field, len(model.AllFields))
	for _, f := range model.AllFields {
		if i := canonicalColumn(cols[1:], f); i >= 0 {
			fieldAt[i+1] = f
		}
	}

	record := make([]string, len(cols))
	for _, row := range run.Rows {
		record[0] = string(row.Result.Status)
		for i := 1; i < len(cols); i++ {
			if f, ok := fieldAt[i]; ok {
				record[i] = row.Canonical.Get(f)
			} else {
				record[i] = row.Passthrough[cols[i]]
			}
		}
		if err := writeQuoted(bw, record); err != nil {
			return eris.Wrapf(err, "report: write row %d", row.Index)
		}
	}

	return eris.Wrap(bw.Flush(), "report: flush")
}

// writeQuoted writes one CSV record with every field quoted.
func writeQuoted(w *bufio.Writer, record []string) error {
	for i, v := range record {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(v, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// canonicalColumn returns the index in header of the column named after f,
// compared case-insensitively, or -1.
func canonicalColumn(header []string, f model.Field) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), string(f)) {
			return i
		}
	}
	return -1
}

// ExportRow is one re-parsed export row.
type ExportRow struct {
	Status model.Status
	Fields map[string]string
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]string, []ExportRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "report: read export")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("report: export is empty")
	}

	header := records[0]
	if header[0] != StatusColumn {
		return nil, nil, eris.Errorf("report: first column is %q, want %q", header[0], StatusColumn)
	}

	rows := make([]ExportRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := ExportRow{Status: model.Status(rec[0]), Fields: make(map[string]string, len(header)-1)}
		for i := 1; i < len(header) && i < len(rec); i++ {
			row.Fields[header[i]] = rec[i]
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
