package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-verify/internal/config"
	"github.com/sells-group/catalog-verify/internal/ingest"
	"github.com/sells-group/catalog-verify/internal/model"
	"github.com/sells-group/catalog-verify/internal/report"
	"github.com/sells-group/catalog-verify/internal/verify"
)

type verifyOptions struct {
	File     string
	Output   string
	Format   string
	Fixture  string
	Encoding string
	Sheet    string
}

var verifyOpts verifyOptions

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an inventory upload against the catalog",
	Long: `Reads an inventory CSV or XLSX file, matches every row against the catalog
and writes one verification status per row.

Examples:
  # Verify against the configured database, CSV report to stdout
  catalog-verify verify --file inventory.csv

  # Offline run against a YAML catalog fixture
  catalog-verify verify --file inventory.csv --fixture catalog.yaml --output report.csv

  # Full match detail as JSON
  catalog-verify verify --file inventory.xlsx --format json --output report.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if verifyOpts.Fixture != "" {
			cfg.Catalog.Fixture = verifyOpts.Fixture
		}
		if err := cfg.Validate("verify"); err != nil {
			return err
		}
		return runVerify(cmd.Context(), cfg, verifyOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runVerify(ctx context.Context, c *config.Config, opts verifyOptions, stdout, stderr io.Writer) error {
	upload, err := ingest.ReadFile(ctx, opts.File, ingest.Options{Encoding: opts.Encoding, SheetName: opts.Sheet})
	if err != nil {
		return eris.Wrap(err, "verify: read upload")
	}
	zap.L().Info("parsed upload", zap.String("file", opts.File), zap.Int("rows", len(upload.Rows)))

	st, err := initStore(ctx, c, true)
	if err != nil {
		return eris.Wrap(err, "verify: open catalog")
	}
	defer st.Close() //nolint:errcheck

	run, err := verify.NewService(st, loaderConfig(c)).Run(ctx, upload)
	if err != nil {
		return err
	}

	out := stdout
	if opts.Output != "" && opts.Output != "-" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return eris.Wrap(err, "verify: create output")
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	if err := writeRun(out, opts.Format, run); err != nil {
		return err
	}
	return report.WriteSummary(stderr, run.Summary)
}

func writeRun(w io.Writer, format string, run *model.VerificationRun) error {
	switch format {
	case "", "csv":
		return report.WriteCSV(w, run)
	case "json":
		return report.WriteJSON(w, run)
	case "summary":
		return report.WriteSummary(w, run.Summary)
	default:
		return eris.Errorf("verify: unknown format %q (want csv, json or summary)", format)
	}
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyOpts.File, "file", "", "inventory file to verify (.csv or .xlsx)")
	f.StringVarP(&verifyOpts.Output, "output", "o", "-", "report destination (- for stdout)")
	f.StringVar(&verifyOpts.Format, "format", "csv", "report format: csv, json or summary")
	f.StringVar(&verifyOpts.Fixture, "fixture", "", "YAML catalog fixture to use instead of the database")
	f.StringVar(&verifyOpts.Encoding, "encoding", "", "legacy CSV charset, e.g. windows-1252")
	f.StringVar(&verifyOpts.Sheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = verifyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(verifyCmd)
}
