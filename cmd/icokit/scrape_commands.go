package main

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"icokit/internal/fileutil"
	"icokit/internal/services/coinmarketcap"
	"icokit/internal/textutil"
	"icokit/internal/workpool"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape market data tables",
	}
	scrapeCmd.AddCommand(newScrapeListingCommand(ctx))
	scrapeCmd.AddCommand(newScrapeHistoryCommand(ctx))
	return scrapeCmd
}

func newScrapeListingCommand(ctx *commandContext) *cobra.Command {
	var source string
	var output string

	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Scrape the all-coins listing into CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.crawler(logger)
			if err != nil {
				return err
			}
			table, err := client.Listing(cmd.Context(), strings.TrimSpace(source))
			if err != nil {
				return err
			}

			target := strings.TrimSpace(output)
			if target == "-" {
				return table.WriteCSV(cmd.OutOrStdout())
			}
			if target == "" {
				target = filepath.Join(cfg.Paths.DataDir, "listing.csv")
			}
			if err := writeTableCSV(target, table); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"path": target, "rows": len(table.Rows)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(table.Rows), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Listing URL or saved HTML file (defaults to the configured listing URL)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV destination, - for stdout (defaults to <data_dir>/listing.csv)")
	return cmd
}

type snapshotRow struct {
	URL    string `json:"url"`
	Path   string `json:"path,omitempty"`
	Rows   int    `json:"rows"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func newScrapeHistoryCommand(ctx *commandContext) *cobra.Command {
	var fetch bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List historical snapshots, optionally scraping each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			client, err := ctx.crawler(logger)
			if err != nil {
				return err
			}
			links, err := client.HistoryLinks(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]snapshotRow, len(links))
			for i, link := range links {
				rows[i] = snapshotRow{URL: link, Status: "listed"}
			}

			if fetch {
				dir := strings.TrimSpace(outputDir)
				if dir == "" {
					dir = filepath.Join(cfg.Paths.DataDir, "history")
				}
				progress := ctx.newProgress(cmd)
				snapshots, err := client.History(cmd.Context(), links, workpool.OnDone(progress.callback("snapshots")))
				progress.stop()
				if err != nil {
					return err
				}
				for i, snap := range snapshots {
					if snap.Err != nil {
						rows[i].Status = "failed"
						rows[i].Error = snap.Err.Error()
						continue
					}
					target := filepath.Join(dir, snapshotName(snap.URL)+".csv")
					if err := writeTableCSV(target, snap.Table); err != nil {
						return err
					}
					rows[i].Path = target
					rows[i].Rows = len(snap.Table.Rows)
					rows[i].Status = "saved"
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found")
				return nil
			}
			tableRows := make([][]string, len(rows))
			for i, r := range rows {
				tableRows[i] = []string{r.URL, r.Status, strconv.Itoa(r.Rows), r.Path}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Snapshot", "Status", "Rows", "File"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Scrape every snapshot into CSV files")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for snapshot CSVs (defaults to <data_dir>/history)")
	return cmd
}

// snapshotName derives a file name from the last path segment of a
// snapshot URL, typically its date.
func snapshotName(raw string) string {
	name := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		name = path.Base(strings.TrimRight(u.Path, "/"))
	}
	name = textutil.SanitizeFileName(name)
	if name == "" || name == "." || name == "/" {
		return "snapshot"
	}
	return name
}

func writeTableCSV(target string, table *coinmarketcap.Table) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(table.WriteCSV(pw))
	}()
	if _, _, err := fileutil.WriteAtomic(target, pr, 0o644); err != nil {
		_ = pr.CloseWithError(err)
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
