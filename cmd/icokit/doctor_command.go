package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"icokit/internal/preflight"
)

type checkView struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var network bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, disk space and site reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, network)
			failed := preflight.Failed(results)

			if ctx.jsonOutput() {
				views := make([]checkView, len(results))
				for i, r := range results {
					views[i] = checkView(r)
				}
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(results))
				for i, r := range results {
					rows[i] = []string{r.Name, yesNo(r.Passed), r.Detail}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "OK", "Detail"}, rows, nil))
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&network, "network", false, "Also check that the market site is reachable")
	return cmd
}
