// Package planestats measures per-plane sample statistics and the normalized
// mean absolute difference between two frames.
//
// Engine is the reference difference engine used by FillDrops: it compares the
// luma planes of two frames and reports a value in [0, 1], where identical
// planes yield 0.
package planestats

import (
	"context"
	"errors"
	"fmt"

	"filldrops/internal/video"
)

// Stats mirrors the classic PlaneStats frame properties.
type Stats struct {
	Min     int
	Max     int
	Average float64 // normalized to [0, 1]
	Diff    float64 // normalized mean absolute difference, [0, 1]
}

// Compute gathers statistics for plane a and its difference against b. Both
// planes must share dimensions.
func Compute(a, b video.Plane, maxValue int) (Stats, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return Stats{}, fmt.Errorf("plane stats: size mismatch %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	if a.Width == 0 || a.Height == 0 {
		return Stats{}, errors.New("plane stats: empty plane")
	}
	if maxValue <= 0 {
		return Stats{}, fmt.Errorf("plane stats: invalid max value %d", maxValue)
	}

	minV, maxV := 255, 0
	var sum, diff uint64
	for y := 0; y < a.Height; y++ {
		rowA := a.Row(y)
		rowB := b.Row(y)
		for x, va := range rowA {
			v := int(va)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			sum += uint64(v)
			d := v - int(rowB[x])
			if d < 0 {
				d = -d
			}
			diff += uint64(d)
		}
	}

	count := float64(a.Width * a.Height)
	scale := float64(maxValue)
	return Stats{
		Min:     minV,
		Max:     maxV,
		Average: float64(sum) / count / scale,
		Diff:    float64(diff) / count / scale,
	}, nil
}

// Engine computes frame differences on a single plane.
type Engine struct {
	plane int
}

// NewEngine returns an engine measuring the luma plane.
func NewEngine() *Engine {
	return &Engine{plane: 0}
}

// NewPlaneEngine returns an engine measuring the given plane index.
func NewPlaneEngine(plane int) *Engine {
	return &Engine{plane: plane}
}

// Range reports the inclusive output range of ComputeDiff.
func (e *Engine) Range() (lo, hi float64) {
	return 0, 1
}

// ComputeDiff returns the normalized mean absolute difference between the
// measured plane of a and b.
func (e *Engine) ComputeDiff(ctx context.Context, a, b *video.Frame) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if a == nil || b == nil {
		return 0, errors.New("plane stats: nil frame")
	}
	if a.Format() != b.Format() {
		return 0, fmt.Errorf("plane stats: format mismatch %s vs %s", a.Format(), b.Format())
	}
	if e.plane < 0 || e.plane >= a.NumPlanes() {
		return 0, fmt.Errorf("plane stats: plane %d not present (frame has %d)", e.plane, a.NumPlanes())
	}
	stats, err := Compute(a.Plane(e.plane), b.Plane(e.plane), a.Format().MaxValue())
	if err != nil {
		return 0, err
	}
	return stats.Diff, nil
}
