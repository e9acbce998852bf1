// Package analysis evaluates the selection decision of every frame of a clip
// without computing interpolations, and summarizes the difference profile.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"filldrops/internal/filldrops"
)

// Evaluator resolves decisions by index. *filldrops.Pipeline implements it.
type Evaluator interface {
	Len() int
	Threshold() float64
	DecisionAt(ctx context.Context, n int) (filldrops.Result, error)
}

// Frame is the decision for one index.
type Frame struct {
	Index    int
	Diff     float64
	Decision filldrops.Decision
}

// Summary aggregates a whole-clip analysis.
type Summary struct {
	Frames       int
	Original     int
	Interpolated int
	Threshold    float64
	MeanDiff     float64
	StdDevDiff   float64
	MedianDiff   float64
	P95Diff      float64
	MaxDiff      float64
	// LongestRun is the longest stretch of consecutive interpolated frames.
	LongestRun int
}

// InterpolatedRatio is the share of frames that would be replaced.
func (s Summary) InterpolatedRatio() float64 {
	if s.Frames == 0 {
		return 0
	}
	return float64(s.Interpolated) / float64(s.Frames)
}

// Report is the per-frame result plus its summary.
type Report struct {
	Frames  []Frame
	Summary Summary
}

// Options tunes Run.
type Options struct {
	Workers  int
	Progress func(done, total int)
}

// Run evaluates every index of ev concurrently.
func Run(ctx context.Context, ev Evaluator, opts Options) (Report, error) {
	total := ev.Len()
	frames := make([]Frame, total)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	progress := make(chan struct{}, workers)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		done := 0
		for range progress {
			done++
			if opts.Progress != nil {
				opts.Progress(done, total)
			}
		}
	}()

	for n := 0; n < total; n++ {
		if gctx.Err() != nil {
			break
		}
		n := n // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			res, err := ev.DecisionAt(gctx, n)
			if err != nil {
				return fmt.Errorf("analyse frame %d: %w", n, err)
			}
			frames[n] = Frame{Index: n, Diff: res.Diff, Decision: res.Decision}
			progress <- struct{}{}
			return nil
		})
	}
	err := g.Wait()
	close(progress)
	<-progressDone
	if err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return Report{Frames: frames, Summary: Summarize(frames, ev.Threshold())}, nil
}

// Summarize computes statistics over frames.
func Summarize(frames []Frame, threshold float64) Summary {
	s := Summary{Frames: len(frames), Threshold: threshold}
	if len(frames) == 0 {
		return s
	}
	diffs := make([]float64, len(frames))
	run := 0
	for i, f := range frames {
		diffs[i] = f.Diff
		if f.Decision == filldrops.Interpolated {
			s.Interpolated++
			run++
			s.LongestRun = max(s.LongestRun, run)
		} else {
			s.Original++
			run = 0
		}
	}
	s.MeanDiff, s.StdDevDiff = stat.MeanStdDev(diffs, nil)
	if len(diffs) < 2 {
		s.StdDevDiff = 0
	}
	slices.Sort(diffs)
	s.MedianDiff = stat.Quantile(0.5, stat.Empirical, diffs, nil)
	s.P95Diff = stat.Quantile(0.95, stat.Empirical, diffs, nil)
	s.MaxDiff = diffs[len(diffs)-1]
	return s
}

// Interpolated returns the indices that would be replaced.
func (r Report) Interpolated() []int {
	var out []int
	for _, f := range r.Frames {
		if f.Decision == filldrops.Interpolated {
			out = append(out, f.Index)
		}
	}
	return out
}
