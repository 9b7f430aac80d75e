package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-verify/internal/model"
)

// WriteJSON writes the full run, including per-field mismatch detail.
func WriteJSON(w io.Writer, run *model.VerificationRun) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(run), "report: encode json")
}

// WriteSummary prints per-status counts as an aligned table.
func WriteSummary(out io.Writer, s model.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tROWS")
	_, _ = fmt.Fprintln(w, "------\t----")
	for _, st := range model.Statuses {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", st, s.Counts[st])
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\n", s.Total)
	return eris.Wrap(w.Flush(), "report: write summary")
}
