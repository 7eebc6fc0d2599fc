package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"icokit/internal/corpus"
	"icokit/internal/textload"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var statuses []string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract whitepaper text into the corpus database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := strings.TrimSpace(dir)
			if root == "" {
				root = cfg.Paths.WhitepaperDir
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
			progress := ctx.newProgress(cmd)
			items, err := textload.Load(cmd.Context(), root, textload.Options{
				Statuses:   statuses,
				Workers:    cfg.Workers.Count,
				Logger:     logger,
				OnProgress: progress.callback("extract"),
			})
			progress.stop()
			if err != nil {
				return err
			}

			docs := make([]corpus.RawDocument, len(items))
			perStatus := map[string]int{}
			for i, item := range items {
				docs[i] = corpus.RawDocument{ID: item.ID, Status: item.Status, Source: item.Path, Text: item.Text}
				perStatus[item.Status]++
			}
			if err := ctx.withStore(func(store *corpus.Store) error {
				return store.PutRaw(cmd.Context(), docs)
			}); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"root": root, "documents": len(docs), "by_status": perStatus})
			}
			order := statuses
			if len(order) == 0 {
				order = textload.DefaultStatuses
			}
			rows := make([][]string, 0, len(order))
			for _, status := range order {
				rows = append(rows, []string{status, strconv.Itoa(perStatus[status])})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Status", "Documents"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Stored %d documents from %s\n", len(docs), root)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Whitepaper tree to read (defaults to the configured whitepaper_dir)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Status folders to read (default upcoming,past,current)")
	return cmd
}
