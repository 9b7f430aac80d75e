package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/catalog-verify/internal/model"
)

// ReadXLSX parses an XLSX workbook. The first row of the selected sheet is
// the header.
func ReadXLSX(data []byte, opts Options) (model.Upload, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return model.Upload{}, eris.Wrap(err, "xlsx: open workbook")
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return model.Upload{}, err
	}

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		records = append(records, rowToStrings(row))
	}
	return buildUpload(records)
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
