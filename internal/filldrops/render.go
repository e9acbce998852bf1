package filldrops

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FrameSource resolves output frames by index. Pipeline implements it.
type FrameSource interface {
	Len() int
	FrameAt(ctx context.Context, n int) (Result, error)
}

// Sink consumes resolved frames in index order.
type Sink interface {
	WriteResult(ctx context.Context, res Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res Result) error

func (f SinkFunc) WriteResult(ctx context.Context, res Result) error { return f(ctx, res) }

// RenderOptions tunes Render.
type RenderOptions struct {
	// Workers bounds concurrent frame evaluation. Zero uses GOMAXPROCS.
	Workers int
	// Start and End select the half-open index range. End zero means Len.
	Start, End int
	// Progress, when set, is called from the sink goroutine after each write.
	Progress func(done, total int)
}

// RenderStats summarizes one Render call.
type RenderStats struct {
	Frames       int
	Original     int
	Interpolated int
	MaxDiff      float64
	SumDiff      float64
}

// MeanDiff returns the average difference over rendered frames.
func (s RenderStats) MeanDiff() float64 {
	if s.Frames == 0 {
		return 0
	}
	return s.SumDiff / float64(s.Frames)
}

// Render evaluates frames of src concurrently and delivers them to sink in
// ascending index order. The first error from a worker or the sink cancels
// outstanding work and is returned.
func Render(ctx context.Context, src FrameSource, sink Sink, opts RenderOptions) (RenderStats, error) {
	if src == nil || sink == nil {
		return RenderStats{}, fmt.Errorf("%w: render needs a source and a sink", ErrInvalidConfig)
	}
	start, end := opts.Start, opts.End
	if end == 0 {
		end = src.Len()
	}
	if start < 0 || end > src.Len() || start > end {
		return RenderStats{}, fmt.Errorf("%w: render range [%d, %d) outside [0, %d)", ErrInvalidConfig, start, end, src.Len())
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	total := end - start

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// order holds one buffered slot per in-flight index, queued in index
	// order. Its capacity bounds how far workers run ahead of the sink.
	order := make(chan chan Result, workers*2)
	sem := make(chan struct{}, workers)

	g.Go(func() error {
		defer close(order)
		for n := start; n < end; n++ {
			slot := make(chan Result, 1)
			select {
			case order <- slot:
			case <-gctx.Done():
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			n := n // per-iteration copy (pre-Go 1.22 loop semantics)
			g.Go(func() error {
				defer func() { <-sem }()
				res, err := src.FrameAt(gctx, n)
				if err != nil {
					return err
				}
				slot <- res
				return nil
			})
		}
		return nil
	})

	var stats RenderStats
	sinkErr := func() error {
		for slot := range order {
			var res Result
			select {
			case res = <-slot:
			case <-gctx.Done():
				return nil
			}
			if err := sink.WriteResult(gctx, res); err != nil {
				return err
			}
			stats.Frames++
			if res.Decision == Interpolated {
				stats.Interpolated++
			} else {
				stats.Original++
			}
			stats.SumDiff += res.Diff
			stats.MaxDiff = max(stats.MaxDiff, res.Diff)
			if opts.Progress != nil {
				opts.Progress(stats.Frames, total)
			}
		}
		return nil
	}()
	if sinkErr != nil {
		cancel()
	}
	// Drain so the producer can exit once cancelled.
	for range order {
	}

	err := g.Wait()
	if sinkErr != nil {
		return stats, sinkErr
	}
	if err != nil {
		return stats, err
	}
	if stats.Frames != total {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		return stats, errors.New("filldrops: render stopped early")
	}
	return stats, nil
}
