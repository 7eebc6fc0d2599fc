package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"icokit/internal/corpus"
	"icokit/internal/pipeline"
	"icokit/internal/services"
	"icokit/internal/vocab"
)

type pairRow struct {
	Left  string  `json:"left"`
	Right string  `json:"right"`
	Score float64 `json:"score"`
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var limit int

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "List pairs of encoded documents with similar vocabulary (IDF-weighted cosine)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be between 0 and 1")
			}
			return ctx.withStore(func(store *corpus.Store) error {
				dict, _, err := store.LoadDictionary(cmd.Context())
				if err != nil {
					if errors.Is(err, services.ErrNotFound) {
						return fmt.Errorf("no dictionary stored; run `icokit clean` first")
					}
					return err
				}
				docs, err := store.List(cmd.Context(), corpus.ListFilter{Stage: pipeline.StageEncoded})
				if err != nil {
					return err
				}
				ids := make([]string, len(docs))
				bows := make([][]vocab.BowEntry, len(docs))
				for i, doc := range docs {
					ids[i] = doc.ID
					bows[i] = doc.BOW
				}
				pairs := vocab.SimilarPairs(ids, bows, dict.IDF(), threshold, limit)

				rows := make([]pairRow, len(pairs))
				for i, p := range pairs {
					rows[i] = pairRow{Left: p.Left, Right: p.Right, Score: p.Score}
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, rows)
				}
				if len(rows) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No pairs above %.2f among %d documents\n", threshold, len(docs))
					return nil
				}
				tableRows := make([][]string, len(rows))
				for i, r := range rows {
					tableRows[i] = []string{r.Left, r.Right, fmt.Sprintf("%.3f", r.Score)}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Document", "Document", "Similarity"},
					tableRows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "Minimum cosine similarity")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of pairs (0 = all)")
	return cmd
}
