package video

import (
	"context"
	"errors"
	"fmt"
)

// ErrFrameRange reports a frame request outside [0, Len()).
var ErrFrameRange = errors.New("frame index out of range")

// PropFrameNumber records the source index of a decoded frame.
const PropFrameNumber = "_FrameNumber"

// Clip is a finite, randomly indexable frame stream with fixed geometry.
// Frame must be safe for concurrent calls with distinct or repeated indices.
type Clip interface {
	Len() int
	Format() Format
	Frame(ctx context.Context, n int) (*Frame, error)
}

// CheckIndex returns an ErrFrameRange error when n lies outside the clip.
func CheckIndex(c Clip, n int) error {
	if n < 0 || n >= c.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrFrameRange, n, c.Len())
	}
	return nil
}

// SliceClip serves frames held in memory.
type SliceClip struct {
	format Format
	frames []*Frame
}

// NewSliceClip wraps frames that all share one format.
func NewSliceClip(frames ...*Frame) (*SliceClip, error) {
	if len(frames) == 0 {
		return nil, errors.New("slice clip: no frames")
	}
	var format Format
	for i, frame := range frames {
		if frame == nil {
			return nil, fmt.Errorf("slice clip: frame %d is nil", i)
		}
		if i == 0 {
			format = frame.Format()
		}
		if frame.Format() != format {
			return nil, fmt.Errorf("slice clip: frame %d format %s differs from %s", i, frame.Format(), format)
		}
	}
	return &SliceClip{format: format, frames: append([]*Frame(nil), frames...)}, nil
}

func (c *SliceClip) Len() int { return len(c.frames) }

func (c *SliceClip) Format() Format { return c.format }

func (c *SliceClip) Frame(ctx context.Context, n int) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckIndex(c, n); err != nil {
		return nil, err
	}
	return c.frames[n], nil
}

// ClampedFrame fetches frame n with the index clamped into the clip. Motion
// code uses it to treat stream edges as repeated frames.
func ClampedFrame(ctx context.Context, c Clip, n int) (*Frame, error) {
	return c.Frame(ctx, clamp(n, 0, c.Len()-1))
}
