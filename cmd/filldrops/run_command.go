package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"filldrops/internal/config"
	"filldrops/internal/filldrops"
	"filldrops/internal/history"
	"filldrops/internal/logging"
	"filldrops/internal/media/ffmpeg"
	"filldrops/internal/preflight"
)

type runOptions struct {
	threshold  float64
	workers    int
	noProgress bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <input> <output>",
		Short: "Render input with duplicate frames replaced",
		Args:  cobra.ExactArgs(2),
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
			return executeRun(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, store, args[0], args[1], opts, logger)
		},
	}

	cmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", 0, "Luma difference below which frames are kept (default from config)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Frames evaluated concurrently (default from config)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func executeRun(ctx context.Context, out, errOut io.Writer, cfg *config.Config, store *history.Store,
	input, output string, opts runOptions, logger *slog.Logger) (err error) {
	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	var stats filldrops.RenderStats
	if store != nil {
		run, beginErr := store.Begin(ctx, history.KindRender, input, output, opts.threshold)
		if beginErr != nil {
			return beginErr
		}
		ctx = logging.WithRunID(ctx, run.ID)
		defer func() {
			finishErr := store.Finish(context.WithoutCancel(ctx), run.ID, history.Outcome{
				Frames:       stats.Frames,
				Original:     stats.Original,
				Interpolated: stats.Interpolated,
				MeanDiff:     stats.MeanDiff(),
				MaxDiff:      stats.MaxDiff,
				Err:          err,
			})
			if err == nil {
				err = finishErr
			}
		}()
	}
	return renderToOutput(ctx, out, errOut, cfg, input, output, opts, logger, &stats)
}

func renderToOutput(ctx context.Context, out, errOut io.Writer, cfg *config.Config,
	input, output string, opts runOptions, logger *slog.Logger, stats *filldrops.RenderStats) (err error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "run"))
	started := time.Now()

	src, err := openSource(ctx, cfg, input, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	pipeline, err := buildPipeline(cfg, src, opts.threshold, logger)
	if err != nil {
		return err
	}

	sink, err := openOutput(ctx, ffmpeg.New(cfg.FFmpeg.FFmpegBinary), output, src.Header())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(err); err == nil {
			err = closeErr
		}
	}()

	logger.Info("render started",
		logging.String("input", input),
		logging.String("output", output),
		logging.Int("frames", pipeline.Len()),
		logging.Float64("threshold", pipeline.Threshold()),
		logging.String("format", pipeline.Format().String()),
	)

	renderOpts := filldrops.RenderOptions{Workers: opts.workers}
	var bar *progressbar.ProgressBar
	if !opts.noProgress && logging.IsTerminal(errOut) {
		bar = newProgressBar(errOut, pipeline.Len(), "rendering")
		renderOpts.Progress = func(done, _ int) { _ = bar.Set(done) }
	}

	*stats, err = filldrops.Render(ctx, pipeline, sink, renderOpts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		var de *filldrops.DelegateError
		if errors.As(err, &de) {
			logger.Error("render failed",
				logging.Int(logging.FieldFrame, de.Index),
				logging.String("delegate", string(de.Delegate)),
				logging.Error(de.Err),
			)
		}
		return fmt.Errorf("render: %w", err)
	}
	if err := sink.Close(nil); err != nil {
		return err
	}

	elapsed := time.Since(started)
	logger.Info("render finished",
		logging.Int("frames", stats.Frames),
		logging.Int("interpolated", stats.Interpolated),
		logging.Duration("elapsed", elapsed),
	)
	printRunSummary(out, output, *stats, elapsed)
	return nil
}
