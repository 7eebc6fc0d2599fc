package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"icokit/internal/preflight"
	"icokit/internal/services/whitepaper"
	"icokit/internal/workpool"
)

type downloadRow struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
	Path    string `json:"path"`
	Bytes   int64  `json:"bytes,omitempty"`
	SHA256  string `json:"sha256,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the whitepapers listed in a CSV file",
		Long: "Download the whitepapers listed in a CSV file with the columns\n" +
			"name, ticker, status and wp_url. Files already present are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("--input is required")
			}
			if check := preflight.CheckDirectoryAccess("Whitepaper directory", cfg.Paths.WhitepaperDir); !check.Passed {
				return fmt.Errorf("%s: %s", check.Name, check.Detail)
			}

			file, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open listing: %w", err)
			}
			entries, err := whitepaper.ReadEntries(file)
			file.Close()
			if err != nil {
				return err
			}

			release, err := ctx.acquireRunLock()
			if err != nil {
				return err
			}
			defer release()

			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			downloader := whitepaper.NewDownloader(whitepaper.Options{
				Root:      cfg.Paths.WhitepaperDir,
				UserAgent: cfg.Crawler.UserAgent,
				Timeout:   time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second,
				Workers:   cfg.Workers.Count,
			}, logger)

			progress := ctx.newProgress(cmd)
			results, err := downloader.DownloadAll(cmd.Context(), entries, workpool.OnDone(progress.callback("download")))
			progress.stop()
			if err != nil {
				return err
			}

			rows := make([]downloadRow, len(results))
			counts := map[whitepaper.Outcome]int{}
			for i, res := range results {
				counts[res.Outcome]++
				rows[i] = downloadRow{
					Ticker:  res.Entry.Ticker,
					Status:  res.Entry.Status,
					Outcome: string(res.Outcome),
					Path:    res.Path,
					Bytes:   res.Bytes,
					SHA256:  res.SHA256,
				}
				if res.Err != nil {
					rows[i].Error = res.Err.Error()
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}
			var failed [][]string
			for _, r := range rows {
				if r.Outcome == string(whitepaper.OutcomeFailed) {
					failed = append(failed, []string{r.Ticker, r.Status, r.Error})
				}
			}
			out := cmd.OutOrStdout()
			if len(failed) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Ticker", "Status", "Error"}, failed, nil))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Downloaded", "Skipped", "Failed"},
				[][]string{{
					strconv.Itoa(counts[whitepaper.OutcomeDownloaded]),
					strconv.Itoa(counts[whitepaper.OutcomeSkipped]),
					strconv.Itoa(counts[whitepaper.OutcomeFailed]),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV listing of whitepapers")
	return cmd
}
