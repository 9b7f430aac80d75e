package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-verify/internal/catalog"
	"github.com/sells-group/catalog-verify/internal/ingest"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the reference catalog",
	Long:  "Commands for creating, loading and inspecting the catalog database.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return cfg.Validate("catalog")
	},
}

// -- catalog migrate --

var catalogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		zap.L().Info("catalog migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

// -- catalog import --

type importOptions struct {
	File     string
	Replace  bool
	Encoding string
	Sheet    string
}

var importOpts importOptions

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load catalog records from a CSV or XLSX file",
	Long: `Loads catalog records from a file whose headers use the same aliases as
inventory uploads, plus an optional id column. Records upsert by id unless
--replace is given, which swaps the whole catalog.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return runImport(ctx, st, importOpts, cmd.OutOrStdout())
	},
}

func runImport(ctx context.Context, st catalog.Store, opts importOptions, out io.Writer) error {
	upload, err := ingest.ReadFile(ctx, opts.File, ingest.Options{Encoding: opts.Encoding, SheetName: opts.Sheet})
	if err != nil {
		return eris.Wrap(err, "catalog import: read file")
	}
	records, err := catalog.RecordsFromUpload(upload)
	if err != nil {
		return err
	}

	write := st.Insert
	if opts.Replace {
		write = st.Replace
	}
	n, err := write(ctx, records)
	if err != nil {
		return eris.Wrap(err, "catalog import: write records")
	}

	zap.L().Info("catalog import complete",
		zap.String("file", opts.File),
		zap.Int("records", len(records)),
		zap.Int64("written", n),
		zap.Bool("replace", opts.Replace),
	)
	_, _ = fmt.Fprintf(out, "imported %d catalog records\n", len(records))
	return nil
}

// -- catalog count --

var catalogCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of catalog records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Count(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	f := catalogImportCmd.Flags()
	f.StringVar(&importOpts.File, "file", "", "catalog file to import (.csv or .xlsx)")
	f.BoolVar(&importOpts.Replace, "replace", false, "replace the whole catalog instead of upserting")
	f.StringVar(&importOpts.Encoding, "encoding", "", "legacy CSV charset, e.g. windows-1252")
	f.StringVar(&importOpts.Sheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = catalogImportCmd.MarkFlagRequired("file")

	catalogCmd.AddCommand(catalogMigrateCmd, catalogImportCmd, catalogCountCmd)
	rootCmd.AddCommand(catalogCmd)
}

