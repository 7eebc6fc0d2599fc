package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"icokit/internal/corpus"
	"icokit/internal/logging"
	"icokit/internal/pipeline"
	"icokit/internal/services"
)

type cleanSummary struct {
	RunID      string       `json:"run_id"`
	Items      int          `json:"items"`
	Failed     int          `json:"failed"`
	Tokens     int          `json:"tokens"`
	Vocabulary int          `json:"vocabulary"`
	Seconds    float64      `json:"seconds"`
	Failures   []failureRow `json:"failures,omitempty"`
}

type failureRow struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var minFreq, minLength, workers int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the cleaning pipeline over every stored document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min-freq") {
				minFreq = cfg.Vocabulary.MinFreq
			}
			if !cmd.Flags().Changed("min-length") {
				minLength = cfg.Vocabulary.MinLength
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers.Count
			}
			cleaning, err := cfg.CleaningOptions()
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
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.RawItems(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("%w; run `icokit extract` first", errEmptyCorpus)
			}

			progress := ctx.newProgress(cmd)
			proc, err := pipeline.New(pipeline.Options{
				Cleaning:  cleaning,
				Workers:   workers,
				MinFreq:   minFreq,
				MinLength: minLength,
				Logger:    logger,
				OnProgress: func(stage pipeline.Stage, done, total int) {
					progress.update(string(stage), done, total)
				},
			})
			if err != nil {
				progress.stop()
				return err
			}

			run, err := store.StartRun(cmd.Context(), minFreq, minLength)
			if err != nil {
				progress.stop()
				return err
			}
			runCtx := services.WithRunID(cmd.Context(), run.ID)
			result, runErr := proc.Run(runCtx, items)
			progress.stop()

			// The command context is cancelled on interrupt; bookkeeping still
			// needs to land.
			bookCtx := context.WithoutCancel(runCtx)
			if runErr != nil {
				if err := store.FinishRun(bookCtx, run.ID, pipeline.Summary{Items: len(items)}, runErr); err != nil {
					logging.WithContext(runCtx, logger).Warn("record interrupted run failed", logging.Error(err))
				}
				return runErr
			}
			if err := store.SaveResult(bookCtx, run.ID, result); err != nil {
				_ = store.FinishRun(bookCtx, run.ID, result.Summary, err)
				return err
			}
			if err := store.FinishRun(bookCtx, run.ID, result.Summary, nil); err != nil {
				return err
			}

			return renderCleanSummary(cmd, ctx, run, result)
		},
	}
	cmd.Flags().IntVar(&minFreq, "min-freq", pipeline.DefaultMinFreq, "Drop tokens occurring fewer times across the corpus")
	cmd.Flags().IntVar(&minLength, "min-length", pipeline.DefaultMinLength, "Drop tokens shorter than this many characters")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers (0 = one per CPU)")
	return cmd
}

func renderCleanSummary(cmd *cobra.Command, ctx *commandContext, run *corpus.Run, result *pipeline.Result) error {
	summary := cleanSummary{
		RunID:      run.ID,
		Items:      result.Summary.Items,
		Failed:     result.Summary.Failed,
		Tokens:     result.Summary.Tokens,
		Vocabulary: result.Summary.Vocabulary,
		Seconds:    result.Summary.Duration.Seconds(),
	}
	for _, doc := range result.Failures() {
		msg := ""
		if doc.Err != nil {
			msg = doc.Err.Error()
		}
		summary.Failures = append(summary.Failures, failureRow{ID: doc.ID, Error: msg})
	}

	if ctx.jsonOutput() {
		return writeJSON(cmd, summary)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderFields([][2]string{
		{"Run", summary.RunID},
		{"Documents", strconv.Itoa(summary.Items)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Tokens kept", strconv.Itoa(summary.Tokens)},
		{"Vocabulary", strconv.Itoa(summary.Vocabulary)},
		{"Duration", result.Summary.Duration.Round(time.Millisecond).String()},
	}))
	if len(summary.Failures) > 0 {
		rows := make([][]string, len(summary.Failures))
		for i, f := range summary.Failures {
			rows[i] = []string{f.ID, f.Error}
		}
		fmt.Fprintln(out, renderTable([]string{"Failed document", "Error"}, rows, nil))
	}
	return nil
}

var errEmptyCorpus = errors.New("corpus is empty")
