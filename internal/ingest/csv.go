package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/sells-group/catalog-verify/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV upload. The first record is the header.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) (model.Upload, error) {
	dec, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return model.Upload{}, err
	}

	rowCh, errCh := StreamCSV(ctx, dec, opts.Delimiter)
	var records [][]string
	for row := range rowCh {
		records = append(records, row)
	}
	if err := <-errCh; err != nil {
		return model.Upload{}, err
	}
	return buildUpload(records)
}

// StreamCSV reads CSV records and sends them to a channel. Records may have
// any number of fields and quotes are parsed leniently. Both channels are
// closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, delimiter rune) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if delimiter != 0 {
			reader.Comma = delimiter
		}
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// decodeReader strips a UTF-8 byte order mark and, when encoding names a
// legacy charset, transcodes the stream to UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	if encoding != "" {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: unsupported encoding %q", encoding)
		}
		if enc != unicode.UTF8 {
			return enc.NewDecoder().Reader(r), nil
		}
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM)) //nolint:errcheck
	}
	return br, nil
}
