package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"csvdeck/internal/dataset"
	"csvdeck/internal/export"
	"csvdeck/internal/loader"
	"csvdeck/internal/manifest"
	"csvdeck/internal/stats"
	"csvdeck/internal/table"
	"csvdeck/internal/tui"
	"csvdeck/internal/web"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Index the data directory into the JSON manifest",
	Long: `Scans data_dir for .csv files and writes public_dir/manifest_name,
replacing any previous manifest. A missing data directory produces an empty
manifest.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := writeManifest(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s (%d files)\n", cfg.ManifestPath(), m.FileCount)
		return nil
	},
}

func writeManifest(ctx context.Context) (*manifest.Manifest, error) {
	b := &manifest.Builder{
		DataDir:    cfg.DataDir,
		OutputPath: cfg.ManifestPath(),
		Prefix:     cfg.DataPrefix,
		Logger:     logger,
	}
	return b.Write(ctx)
}

var skipManifest bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the manifest and the data files under the base path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !skipManifest {
			if _, err := writeManifest(cmd.Context()); err != nil {
				return err
			}
		}
		srv := web.NewServer(cfg, logger)
		fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", srv.URL(cfg.Listen))
		return srv.ListenAndServe(cmd.Context())
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the published datasets in the terminal",
	Long: `Reads the manifest from source (a directory or an http(s) URL of a
deployed site) and opens the interactive table browser.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, err := newFetcher()
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), tui.Options{
			Fetcher:      fetcher,
			ManifestName: cfg.ManifestName,
			PageSizes:    cfg.PageSizes,
			Logger:       logger,
		})
	},
}

var (
	exportOut    string
	exportFilter string
	exportSort   string
)

var exportCmd = &cobra.Command{
	Use:   "export <file> --out <path.csv|path.xlsx>",
	Short: "Filter and sort a dataset, then write it as CSV or XLSX",
	Long: `<file> is either a local .csv/.xlsx path or the fileName of a published
dataset. --sort takes a column name, optionally suffixed with ":desc".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := resolveDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		v := table.New(cfg.PageSizes...)
		v.SetRows(rs)
		if exportSort != "" {
			col, dir, _ := strings.Cut(exportSort, ":")
			if err := v.SetSort(col, strings.EqualFold(dir, "desc")); err != nil {
				return err
			}
		}
		v.SetFilter(exportFilter)

		rows := v.Filtered()
		if err := export.ToFile(exportOut, v.Columns(), rows); err != nil {
			return err
		}
		logger.Info("dataset exported", "source", args[0], "out", exportOut, "rows", len(rows))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s rows to %s\n", humanize.Comma(int64(len(rows))), exportOut)
		return nil
	},
}

var describeOp string

var describeCmd = &cobra.Command{
	Use:   "describe <file> [column...]",
	Short: "Show statistics for the numeric columns of a dataset",
	Long: `Prints count, sum, mean, median, min, max and std for each column.
--op narrows the output to one of: ` + strings.Join(stats.Operations, ", ") + ".",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if describeOp != "" && !slices.Contains(stats.Operations, describeOp) {
			return fmt.Errorf("%w: %q", stats.ErrUnsupported, describeOp)
		}
		rs, err := resolveDataset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		columns := args[1:]
		if len(columns) == 0 {
			columns = stats.NumericColumns(rs)
		}
		if len(columns) == 0 {
			return errors.New("no numeric columns found")
		}

		var t *lgtable.Table
		if describeOp != "" {
			t = describeOne(rs, columns, describeOp)
		} else {
			t = describeAll(rs, columns)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s rows)\n%s\n", args[0], humanize.Comma(int64(rs.Len())), t.Render())
		return nil
	},
}

func describeAll(rs *dataset.RowSet, columns []string) *lgtable.Table {
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers("COLUMN", "COUNT", "SUM", "MEAN", "MEDIAN", "MIN", "MAX", "STD")
	for _, col := range columns {
		s, err := stats.Summarize(rs.Rows, col)
		if err != nil {
			t.Row(col, "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		t.Row(col, humanize.Comma(int64(s.Count)), num(s.Sum), num(s.Mean),
			num(s.Median), num(s.Min), num(s.Max), num(s.Std))
	}
	return t
}

func describeOne(rs *dataset.RowSet, columns []string, op string) *lgtable.Table {
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers("COLUMN", strings.ToUpper(op))
	for _, col := range columns {
		values, _ := stats.Values(rs.Rows, col)
		v, err := stats.Compute(op, values)
		if err != nil {
			t.Row(col, "-")
			continue
		}
		t.Row(col, num(v))
	}
	return t
}

func num(f float64) string {
	return humanize.CommafWithDigits(f, 2)
}

func init() {
	serveCmd.Flags().BoolVar(&skipManifest, "skip-manifest", false, "serve the existing manifest without rebuilding it")

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (.csv or .xlsx)")
	exportCmd.Flags().StringVar(&exportFilter, "filter", "", "keep rows where any cell contains this text")
	exportCmd.Flags().StringVar(&exportSort, "sort", "", "sort column, e.g. score or score:desc")
	_ = exportCmd.MarkFlagRequired("out")

	describeCmd.Flags().StringVar(&describeOp, "op", "", "print a single statistic per column")
}

// newFetcher reads the site from source. When source is the local public
// directory, data files are read straight from data_dir.
func newFetcher() (loader.Fetcher, error) {
	source := cfg.SourceOrDefault()
	var mounts map[string]string
	if filepath.Clean(source) == filepath.Clean(cfg.PublicDir) {
		mounts = map[string]string{strings.Trim(cfg.DataPrefix, "/"): cfg.DataDir}
	}
	return loader.NewFetcher(source, cfg.BasePath, mounts)
}

// resolveDataset loads arg from disk when it names a file, otherwise looks
// it up in the published manifest.
func resolveDataset(ctx context.Context, arg string) (*dataset.RowSet, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return export.ReadFile(arg)
	}

	fetcher, err := newFetcher()
	if err != nil {
		return nil, err
	}
	m, err := loader.FetchManifest(ctx, fetcher, cfg.ManifestName)
	if err != nil {
		return nil, err
	}
	desc, ok := loader.NewRegistry(m).Lookup(arg)
	if !ok {
		return nil, fmt.Errorf("%s is neither a file nor a published dataset", arg)
	}
	return loader.New(fetcher, logger).Load(ctx, desc)
}
