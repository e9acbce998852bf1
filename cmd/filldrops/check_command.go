package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filldrops/internal/deps"
	"filldrops/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			depRows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Version
				if !s.Available {
					detail = s.Detail
				}
				depRows = append(depRows, []string{s.Name, s.Command, yesNo(s.Available), yesNo(s.Optional), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Command", "Available", "Optional", "Detail"}, depRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			dirRows := make([][]string, 0, len(results))
			for _, r := range results {
				dirRows = append(dirRows, []string{r.Name, yesNo(r.Passed), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Passed", "Detail"}, dirRows, nil))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v", missing)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
