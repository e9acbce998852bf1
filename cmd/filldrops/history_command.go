package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filldrops/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	return historyCmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	store, err := ctx.openHistory()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("history is disabled (set history.enabled = true)")
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				p := newPrinter()
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Kind),
						string(run.Status),
						run.InputPath,
						p.Sprintf("%d", run.Frames),
						p.Sprintf("%d", run.Interpolated),
						humanize.Time(run.StartedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Status", "Input", "Frames", "Interpolated", "Started"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var listFrames bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run; the id may be abbreviated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				p := newPrinter()
				rows := [][]string{
					{"ID", run.ID},
					{"Kind", string(run.Kind)},
					{"Status", string(run.Status)},
					{"Input", run.InputPath},
					{"Output", run.OutputPath},
					{"Threshold", p.Sprintf("%.4f", run.Threshold)},
					{"Frames", p.Sprintf("%d", run.Frames)},
					{"Kept", p.Sprintf("%d", run.Original)},
					{"Interpolated", p.Sprintf("%d (%.1f%%)", run.Interpolated, percent(run.Interpolated, run.Frames))},
					{"Mean diff", p.Sprintf("%.4f", run.MeanDiff)},
					{"Max diff", p.Sprintf("%.4f", run.MaxDiff)},
					{"Started", run.StartedAt.Local().Format(time.DateTime)},
					{"Duration", run.Duration().Round(time.Millisecond).String()},
				}
				if run.Error != "" {
					rows = append(rows, []string{"Error", run.Error})
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))

				if !listFrames {
					return nil
				}
				frames, err := store.Frames(cmd.Context(), run.ID, "interpolated")
				if err != nil {
					return err
				}
				if len(frames) == 0 {
					fmt.Fprintln(out, "No interpolated frames recorded")
					return nil
				}
				frameRows := make([][]string, 0, len(frames))
				for _, f := range frames {
					frameRows = append(frameRows, []string{p.Sprintf("%d", f.Index), p.Sprintf("%.4f", f.Diff)})
				}
				fmt.Fprintln(out, renderTable([]string{"Frame", "Diff"}, frameRows, []columnAlignment{alignRight, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&listFrames, "frames", false, "List interpolated frames recorded by analyze runs")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), run.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed run %s\n", run.ID)
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
