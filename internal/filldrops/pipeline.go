package filldrops

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"filldrops/internal/logging"
	"filldrops/internal/video"
)

const (
	// DefaultThreshold is the luma difference below which frames are kept.
	DefaultThreshold = 0.1

	// PropDiff is the frame property carrying the computed difference.
	PropDiff = "FillDropsDiff"
	// PropDecision is the frame property carrying the selection outcome.
	PropDecision = "FillDropsDecision"
)

// MotionCompensator serves the interpolated replacement for frame n, derived
// from original frames n-1 and n.
type MotionCompensator interface {
	InterpolatedAt(ctx context.Context, n int) (*video.Frame, error)
}

// Decision records which source served an output frame.
type Decision int

const (
	Original Decision = iota
	Interpolated
)

func (d Decision) String() string {
	if d == Interpolated {
		return "interpolated"
	}
	return "original"
}

// Decide applies the strict less-than threshold rule.
func Decide(diff, threshold float64) Decision {
	if diff < threshold {
		return Original
	}
	return Interpolated
}

// Result is one resolved output frame. Frame is nil for decision-only
// evaluations.
type Result struct {
	Index    int
	Frame    *video.Frame
	Diff     float64
	Decision Decision
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) { p.threshold = threshold }
}

// WithLogger sets the logger used for per-frame debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// Pipeline selects, per index, between the original frame and its
// motion-compensated substitute.
type Pipeline struct {
	clip      video.Clip
	analyzer  *Analyzer
	mc        MotionCompensator
	threshold float64
	logger    *slog.Logger
}

// New validates the input clip and threshold and wires the collaborators.
// No frame is touched until FrameAt is called.
func New(clip video.Clip, engine DiffEngine, mc MotionCompensator, opts ...Option) (*Pipeline, error) {
	analyzer, err := NewAnalyzer(clip, engine)
	if err != nil {
		return nil, err
	}
	if mc == nil {
		return nil, fmt.Errorf("%w: motion compensator is required", ErrInvalidConfig)
	}
	p := &Pipeline{clip: clip, analyzer: analyzer, mc: mc, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(p)
	}
	lo, hi := analyzer.Range()
	if math.IsNaN(p.threshold) || math.IsInf(p.threshold, 0) {
		return nil, fmt.Errorf("%w: threshold must be a finite number", ErrInvalidConfig)
	}
	if p.threshold < lo || p.threshold > hi {
		return nil, fmt.Errorf("%w: threshold %v outside diff range [%v, %v]", ErrInvalidConfig, p.threshold, lo, hi)
	}
	p.logger = logging.NewComponentLogger(p.logger, "filldrops")
	return p, nil
}

func (p *Pipeline) Len() int { return p.clip.Len() }

func (p *Pipeline) Format() video.Format { return p.clip.Format() }

// Threshold returns the configured threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Analyzer exposes the difference analyzer bound to the input clip.
func (p *Pipeline) Analyzer() *Analyzer { return p.analyzer }

// Frame implements video.Clip.
func (p *Pipeline) Frame(ctx context.Context, n int) (*video.Frame, error) {
	res, err := p.FrameAt(ctx, n)
	if err != nil {
		return nil, err
	}
	return res.Frame, nil
}

// FrameAt resolves output frame n. The interpolation is computed only when
// the difference is at or above the threshold.
func (p *Pipeline) FrameAt(ctx context.Context, n int) (Result, error) {
	diff, orig, err := p.analyzer.diffAt(ctx, n)
	if err != nil {
		return Result{}, err
	}
	decision := Decide(diff, p.threshold)

	frame := orig
	if decision == Interpolated {
		frame, err = p.mc.InterpolatedAt(ctx, n)
		if err != nil {
			return Result{}, delegateErr(DelegateInterpolate, n, err)
		}
		if frame == nil {
			return Result{}, delegateErr(DelegateInterpolate, n, fmt.Errorf("%w: nil frame", ErrMalformedOutput))
		}
		if frame.Format() != p.clip.Format() {
			return Result{}, delegateErr(DelegateInterpolate, n,
				fmt.Errorf("%w: format %s, want %s", ErrMalformedOutput, frame.Format(), p.clip.Format()))
		}
	}

	if p.logger.Enabled(ctx, slog.LevelDebug) {
		logging.WithContext(ctx, p.logger).Debug("frame selected",
			logging.Int(logging.FieldFrame, n),
			logging.Float64(logging.FieldDiff, diff),
			logging.String(logging.FieldDecision, decision.String()),
		)
	}

	frame = frame.WithProps(video.Props{PropDiff: diff, PropDecision: decision.String()})
	return Result{Index: n, Frame: frame, Diff: diff, Decision: decision}, nil
}

// DecisionAt evaluates the difference and decision for frame n without
// resolving any output frame.
func (p *Pipeline) DecisionAt(ctx context.Context, n int) (Result, error) {
	diff, err := p.analyzer.DiffAt(ctx, n)
	if err != nil {
		return Result{}, err
	}
	return Result{Index: n, Diff: diff, Decision: Decide(diff, p.threshold)}, nil
}
