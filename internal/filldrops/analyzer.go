package filldrops

import (
	"context"
	"fmt"
	"math"

	"filldrops/internal/video"
)

// DiffEngine computes a scalar dissimilarity between two frames. Range
// declares the inclusive bounds of its output; identical frames yield lo.
type DiffEngine interface {
	ComputeDiff(ctx context.Context, a, b *video.Frame) (float64, error)
	Range() (lo, hi float64)
}

// Analyzer computes the difference of each original frame against its
// original predecessor.
type Analyzer struct {
	clip   video.Clip
	engine DiffEngine
	lo, hi float64
}

// NewAnalyzer binds engine to clip.
func NewAnalyzer(clip video.Clip, engine DiffEngine) (*Analyzer, error) {
	if err := validateClip(clip); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: diff engine is required", ErrInvalidConfig)
	}
	lo, hi := engine.Range()
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return nil, fmt.Errorf("%w: diff engine declares invalid range [%v, %v]", ErrInvalidConfig, lo, hi)
	}
	return &Analyzer{clip: clip, engine: engine, lo: lo, hi: hi}, nil
}

// Range returns the engine's declared output range.
func (a *Analyzer) Range() (lo, hi float64) { return a.lo, a.hi }

// DiffAt returns the difference metric for frame n.
func (a *Analyzer) DiffAt(ctx context.Context, n int) (float64, error) {
	diff, _, err := a.diffAt(ctx, n)
	return diff, err
}

// diffAt also returns the current frame so callers keeping the original do
// not fetch it twice.
func (a *Analyzer) diffAt(ctx context.Context, n int) (float64, *video.Frame, error) {
	if err := video.CheckIndex(a.clip, n); err != nil {
		return 0, nil, err
	}
	cur, err := a.clip.Frame(ctx, n)
	if err != nil {
		return 0, nil, delegateErr(DelegateSource, n, err)
	}
	prev := cur
	if n > 0 {
		if prev, err = a.clip.Frame(ctx, n-1); err != nil {
			return 0, nil, delegateErr(DelegateSource, n-1, err)
		}
	}

	diff, err := a.engine.ComputeDiff(ctx, cur, prev)
	if err != nil {
		return 0, nil, delegateErr(DelegateDiff, n, err)
	}
	if math.IsNaN(diff) || diff < a.lo || diff > a.hi {
		return 0, nil, delegateErr(DelegateDiff, n,
			fmt.Errorf("%w: %v outside [%v, %v]", ErrMalformedOutput, diff, a.lo, a.hi))
	}
	return diff, cur, nil
}

func validateClip(clip video.Clip) error {
	if clip == nil {
		return fmt.Errorf("%w: clip is required", ErrInvalidInput)
	}
	if clip.Len() <= 0 {
		return fmt.Errorf("%w: clip has no frames", ErrInvalidInput)
	}
	if err := clip.Format().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
