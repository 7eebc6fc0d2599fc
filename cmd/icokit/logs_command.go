package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"icokit/internal/logging"
	"icokit/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the icokit log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := filter.Validate(); err != nil {
				return fmt.Errorf("--level: %w", err)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			offset := int64(-1)
			limit := lines
			if limit <= 0 {
				offset = 0
				limit = 0
			}
			printed := false
			for {
				resp, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset: offset,
					Limit:  limit,
					Follow: follow,
					Wait:   time.Second,
					Filter: filter,
				})
				if err != nil {
					if follow && errors.Is(err, cmd.Context().Err()) {
						return nil
					}
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
					printed = true
				}
				offset = resp.Offset
				if !follow {
					if !printed {
						fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
					}
					return nil
				}
				if cmd.Context().Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only lines tagged with this run id")
	return cmd
}
