package motion

import (
	"context"
	"errors"
	"fmt"

	"filldrops/internal/video"
)

// Estimator produces search planes and motion fields for a clip.
type Estimator interface {
	Super(clip video.Clip, pel, blockSize int) (*Super, error)
	Analyse(super *Super, params Params) (*Vectors, error)
}

// Interpolator turns motion fields into a clip of synthesized frames.
type Interpolator interface {
	Interpolate(clip video.Clip, super *Super, backward, forward *Vectors, time int) (video.Clip, error)
}

// BlockMatcher is the built-in Estimator.
type BlockMatcher struct{}

func (BlockMatcher) Super(clip video.Clip, pel, blockSize int) (*Super, error) {
	return NewSuper(clip, pel, blockSize)
}

func (BlockMatcher) Analyse(super *Super, params Params) (*Vectors, error) {
	return Analyse(super, params)
}

// FlowInterpolator is the built-in Interpolator.
type FlowInterpolator struct{}

func (FlowInterpolator) Interpolate(clip video.Clip, super *Super, backward, forward *Vectors, time int) (video.Clip, error) {
	return NewFlowInter(clip, super, backward, forward, time)
}

// Compensator serves midpoint interpolations between each frame and its
// predecessor, computing only the requested index.
type Compensator struct {
	output video.Clip
}

// New wires the built-in estimator and interpolator.
func New(clip video.Clip, params Params) (*Compensator, error) {
	return NewCompensator(clip, BlockMatcher{}, FlowInterpolator{}, params)
}

// NewCompensator analyses clip with forward and backward fields at delta 1
// and interpolates at MidpointTime. params.Direction and params.Delta are
// ignored.
func NewCompensator(clip video.Clip, est Estimator, interp Interpolator, params Params) (*Compensator, error) {
	if clip == nil {
		return nil, errors.New("motion compensator: nil clip")
	}
	if est == nil || interp == nil {
		return nil, errors.New("motion compensator: estimator and interpolator are required")
	}
	params.Delta = 1
	if err := params.Validate(); err != nil {
		return nil, err
	}

	super, err := est.Super(clip, params.Pel, params.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("motion compensator: super: %w", err)
	}
	fw := params
	fw.Direction = Forward
	vfe, err := est.Analyse(super, fw)
	if err != nil {
		return nil, fmt.Errorf("motion compensator: analyse forward: %w", err)
	}
	bw := params
	bw.Direction = Backward
	vbe, err := est.Analyse(super, bw)
	if err != nil {
		return nil, fmt.Errorf("motion compensator: analyse backward: %w", err)
	}
	output, err := interp.Interpolate(clip, super, vbe, vfe, MidpointTime)
	if err != nil {
		return nil, fmt.Errorf("motion compensator: interpolate: %w", err)
	}
	if output.Len() != clip.Len() || output.Format() != clip.Format() {
		return nil, errors.New("motion compensator: interpolated clip geometry differs from source")
	}
	return &Compensator{output: output}, nil
}

// InterpolatedAt returns the synthesized frame for index n.
func (c *Compensator) InterpolatedAt(ctx context.Context, n int) (*video.Frame, error) {
	return c.output.Frame(ctx, n)
}

// Clip exposes the interpolated stream.
func (c *Compensator) Clip() video.Clip {
	return c.output
}
