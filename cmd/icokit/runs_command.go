package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"icokit/internal/corpus"
)

type runView struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	StartedAt  string  `json:"started_at"`
	Seconds    float64 `json:"seconds"`
	Items      int     `json:"items"`
	Failed     int     `json:"failed"`
	Tokens     int     `json:"tokens"`
	Vocabulary int     `json:"vocabulary"`
	MinFreq    int     `json:"min_freq"`
	MinLength  int     `json:"min_length"`
	Error      string  `json:"error,omitempty"`
}

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *corpus.Store) error {
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				views := make([]runView, len(runs))
				for i, run := range runs {
					views[i] = runView{
						ID:         run.ID,
						Status:     string(run.Status),
						StartedAt:  run.StartedAt.Local().Format(time.DateTime),
						Seconds:    run.Duration().Seconds(),
						Items:      run.Items,
						Failed:     run.Failed,
						Tokens:     run.Tokens,
						Vocabulary: run.Vocabulary,
						MinFreq:    run.MinFreq,
						MinLength:  run.MinLength,
						Error:      run.Error,
					}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, len(views))
				for i, v := range views {
					rows[i] = []string{
						shortID(v.ID),
						v.Status,
						v.StartedAt,
						strconv.Itoa(v.Items),
						strconv.Itoa(v.Failed),
						strconv.Itoa(v.Vocabulary),
						fmt.Sprintf("%d/%d", v.MinFreq, v.MinLength),
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Status", "Started", "Docs", "Failed", "Vocabulary", "Freq/Len"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 = all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
