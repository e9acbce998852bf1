package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"filldrops/internal/analysis"
	"filldrops/internal/config"
	"filldrops/internal/filldrops"
	"filldrops/internal/history"
	"filldrops/internal/logging"
)

type analyzeOptions struct {
	threshold  float64
	workers    int
	frames     bool
	noProgress bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <input>",
		Short: "Report which frames would be interpolated without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				opts.threshold = cfg.Filter.Threshold
			}
			if !cmd.Flags().Changed("workers") {
				opts.workers = cfg.Render.Workers
			}
			if !cfg.Render.Progress {
				opts.noProgress = true
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			return executeAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, store, args[0], opts, logger)
		},
	}

	cmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", 0, "Luma difference below which frames are kept (default from config)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Frames evaluated concurrently (default from config)")
	cmd.Flags().BoolVar(&opts.frames, "frames", false, "List every frame that would be interpolated")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func executeAnalyze(ctx context.Context, out, errOut io.Writer, cfg *config.Config, store *history.Store,
	input string, opts analyzeOptions, logger *slog.Logger) (err error) {
	logger = logging.NewComponentLogger(logger, "analyze")

	var run history.Run
	if store != nil {
		if run, err = store.Begin(ctx, history.KindAnalyze, input, "", opts.threshold); err != nil {
			return err
		}
		ctx = logging.WithRunID(ctx, run.ID)
	}

	report, err := analyzeInput(ctx, errOut, cfg, input, opts, logging.WithContext(ctx, logger))
	if store != nil {
		finishCtx := context.WithoutCancel(ctx)
		outcome := history.Outcome{Err: err}
		if err == nil {
			s := report.Summary
			outcome = history.Outcome{Frames: s.Frames, Original: s.Original, Interpolated: s.Interpolated, MeanDiff: s.MeanDiff, MaxDiff: s.MaxDiff}
			if recErr := store.RecordFrames(finishCtx, run.ID, frameRecords(report)); recErr != nil {
				return recErr
			}
		}
		if finishErr := store.Finish(finishCtx, run.ID, outcome); finishErr != nil && err == nil {
			err = finishErr
		}
	}
	if err != nil {
		return err
	}

	printAnalysis(out, input, report, opts.frames)
	if run.ID != "" {
		fmt.Fprintf(out, "Recorded as run %s\n", run.ID)
	}
	return nil
}

func analyzeInput(ctx context.Context, errOut io.Writer, cfg *config.Config, input string,
	opts analyzeOptions, logger *slog.Logger) (analysis.Report, error) {
	src, err := openSource(ctx, cfg, input, logger)
	if err != nil {
		return analysis.Report{}, err
	}
	defer src.Close()

	pipeline, err := buildPipeline(cfg, src, opts.threshold, logger)
	if err != nil {
		return analysis.Report{}, err
	}

	runOpts := analysis.Options{Workers: opts.workers}
	var bar *progressbar.ProgressBar
	if !opts.noProgress && logging.IsTerminal(errOut) {
		bar = newProgressBar(errOut, pipeline.Len(), "analyzing")
		runOpts.Progress = func(done, _ int) { _ = bar.Set(done) }
	}
	report, err := analysis.Run(ctx, pipeline, runOpts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return analysis.Report{}, err
	}
	logger.Info("analysis finished",
		logging.Int("frames", report.Summary.Frames),
		logging.Int("interpolated", report.Summary.Interpolated),
	)
	return report, nil
}

func frameRecords(report analysis.Report) []history.FrameRecord {
	records := make([]history.FrameRecord, len(report.Frames))
	for i, f := range report.Frames {
		records[i] = history.FrameRecord{Index: f.Index, Diff: f.Diff, Decision: f.Decision.String()}
	}
	return records
}

func printAnalysis(w io.Writer, input string, report analysis.Report, listFrames bool) {
	p := newPrinter()
	s := report.Summary
	rows := [][]string{
		{"Input", input},
		{"Frames", p.Sprintf("%d", s.Frames)},
		{"Threshold", p.Sprintf("%.4f", s.Threshold)},
		{"Kept", p.Sprintf("%d", s.Original)},
		{"Interpolated", p.Sprintf("%d (%.1f%%)", s.Interpolated, percent(s.Interpolated, s.Frames))},
		{"Longest run", p.Sprintf("%d", s.LongestRun)},
		{"Mean diff", p.Sprintf("%.4f ± %.4f", s.MeanDiff, s.StdDevDiff)},
		{"Median diff", p.Sprintf("%.4f", s.MedianDiff)},
		{"P95 diff", p.Sprintf("%.4f", s.P95Diff)},
		{"Max diff", p.Sprintf("%.4f", s.MaxDiff)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	if !listFrames {
		return
	}
	var frameRows [][]string
	for _, f := range report.Frames {
		if f.Decision != filldrops.Interpolated {
			continue
		}
		frameRows = append(frameRows, []string{p.Sprintf("%d", f.Index), p.Sprintf("%.4f", f.Diff)})
	}
	if len(frameRows) == 0 {
		fmt.Fprintln(w, "No frames would be interpolated")
		return
	}
	fmt.Fprintln(w, renderTable([]string{"Frame", "Diff"}, frameRows, []columnAlignment{alignRight, alignRight}))
}
