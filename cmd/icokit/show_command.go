package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"icokit/internal/corpus"
	"icokit/internal/vocab"
)

type documentView struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Source    string           `json:"source,omitempty"`
	Stage     string           `json:"stage"`
	RunID     string           `json:"run_id,omitempty"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt string           `json:"updated_at"`
	RawChars  int              `json:"raw_chars"`
	Cleaned   string           `json:"cleaned,omitempty"`
	Tokens    []string         `json:"tokens,omitempty"`
	BOW       []vocab.BowEntry `json:"bow,omitempty"`
	Raw       string           `json:"raw,omitempty"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showRaw bool
	var topN int

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *corpus.Store) error {
				doc, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				view := documentView{
					ID:        doc.ID,
					Status:    doc.Status,
					Source:    doc.Source,
					Stage:     string(doc.Stage),
					RunID:     doc.RunID,
					Error:     doc.Error,
					UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
					RawChars:  len([]rune(doc.RawText)),
					Cleaned:   doc.Cleaned,
					Tokens:    doc.Tokens,
					BOW:       doc.BOW,
				}
				if showRaw {
					view.Raw = doc.RawText
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				return renderDocument(cmd, store, view, topN)
			})
		},
	}
	cmd.Flags().BoolVar(&showRaw, "raw", false, "Include the raw extracted text")
	cmd.Flags().IntVar(&topN, "top", 15, "Number of most frequent tokens to list")
	return cmd
}

func renderDocument(cmd *cobra.Command, store *corpus.Store, view documentView, topN int) error {
	out := cmd.OutOrStdout()
	fields := [][2]string{
		{"ID", view.ID},
		{"Status", view.Status},
		{"Stage", view.Stage},
		{"Source", view.Source},
		{"Updated", view.UpdatedAt},
		{"Raw characters", strconv.Itoa(view.RawChars)},
		{"Tokens", strconv.Itoa(len(view.Tokens))},
	}
	if view.RunID != "" {
		fields = append(fields, [2]string{"Run", view.RunID})
	}
	if view.Error != "" {
		fields = append(fields, [2]string{"Error", view.Error})
	}
	fmt.Fprintln(out, renderFields(fields))

	if len(view.BOW) > 0 && topN > 0 {
		dict, _, err := store.LoadDictionary(cmd.Context())
		if err == nil {
			fmt.Fprintln(out, renderTable([]string{"Token", "Count"}, topTokens(dict, view.BOW, topN), []columnAlignment{alignLeft, alignRight}))
		}
	}
	if view.Cleaned != "" {
		fmt.Fprintln(out, "Cleaned text:")
		fmt.Fprintln(out, view.Cleaned)
	}
	if view.Raw != "" {
		fmt.Fprintln(out, "Raw text:")
		fmt.Fprintln(out, view.Raw)
	}
	return nil
}

// topTokens lists the most frequent entries of bow, highest count first and
// lowest id on ties.
func topTokens(dict *vocab.Dictionary, bow []vocab.BowEntry, n int) [][]string {
	entries := slices.Clone(bow)
	slices.SortStableFunc(entries, func(a, b vocab.BowEntry) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		token, ok := dict.Token(e.ID)
		if !ok {
			token = "#" + strconv.Itoa(e.ID)
		}
		rows = append(rows, []string{token, strconv.Itoa(e.Count)})
	}
	return rows
}
