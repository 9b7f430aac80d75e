// Package ingest parses uploaded inventory and catalog files (CSV or XLSX)
// into model.Upload values.
package ingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-verify/internal/model"
)

// ErrNoRows is returned when a file has a header but no data rows.
var ErrNoRows = eris.New("ingest: file has no data rows")

// Options configures upload parsing.
type Options struct {
	// Encoding names a legacy charset ("windows-1252", "latin1"). Empty means
	// UTF-8. CSV only.
	Encoding string
	// Delimiter overrides the CSV field separator. Default ','.
	Delimiter rune
	// SheetName selects an XLSX sheet. Default is the first sheet.
	SheetName string
}

// ReadFile parses the file at path, picking the format from its extension.
func ReadFile(ctx context.Context, path string, opts Options) (model.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Upload{}, eris.Wrapf(err, "ingest: read %s", path)
	}
	return Read(ctx, filepath.Base(path), bytes.NewReader(data), opts)
}

// Read parses r as XLSX when name ends in .xlsx, otherwise as CSV.
func Read(ctx context.Context, name string, r io.Reader, opts Options) (model.Upload, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		data, err := io.ReadAll(r)
		if err != nil {
			return model.Upload{}, eris.Wrapf(err, "ingest: read %s", name)
		}
		return ReadXLSX(data, opts)
	}
	return ReadCSV(ctx, r, opts)
}

// buildUpload turns raw records (header first) into an Upload. Header names
// are trimmed; blank header cells and fully blank rows are dropped. When a
// header repeats, the first column wins.
func buildUpload(records [][]string) (model.Upload, error) {
	if len(records) == 0 {
		return model.Upload{}, eris.New("ingest: file is empty")
	}

	raw := records[0]
	header := make([]string, 0, len(raw))
	cols := make(map[int]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cols[i] = h
		header = append(header, h)
	}
	if len(header) == 0 {
		return model.Upload{}, eris.New("ingest: header row has no column names")
	}

	up := model.Upload{Header: header}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(header))
		for _, h := range header {
			fields[h] = ""
		}
		for i, v := range rec {
			if h, ok := cols[i]; ok {
				fields[h] = v
			}
		}
		up.Rows = append(up.Rows, model.UploadRow{Index: len(up.Rows), Fields: fields})
	}
	if len(up.Rows) == 0 {
		return model.Upload{}, ErrNoRows
	}
	return up, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
