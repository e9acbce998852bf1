package motion

import (
	"context"
	"errors"
	"fmt"

	"filldrops/internal/video"
)

// FlowInter synthesizes, for each index n, the frame at a temporal position
// between source frames n-1 and n.
type FlowInter struct {
	clip     video.Clip
	super    *Super
	backward *Vectors
	forward  *Vectors
	time     int
}

// NewFlowInter builds an interpolating clip. backward must search forward in
// time (Backward direction) and forward must search the previous frame; both
// use delta 1. time is the position in percent measured from frame n-1.
func NewFlowInter(clip video.Clip, super *Super, backward, forward *Vectors, time int) (*FlowInter, error) {
	if clip == nil || super == nil || backward == nil || forward == nil {
		return nil, errors.New("motion flowinter: clip, super and both vector sources are required")
	}
	if time < 0 || time > 100 {
		return nil, fmt.Errorf("motion flowinter: time must be within [0, 100], got %d", time)
	}
	if backward.Params().Direction != Backward {
		return nil, errors.New("motion flowinter: backward vectors have forward direction")
	}
	if forward.Params().Direction != Forward {
		return nil, errors.New("motion flowinter: forward vectors have backward direction")
	}
	if backward.Params().Delta != 1 || forward.Params().Delta != 1 {
		return nil, errors.New("motion flowinter: vectors must use delta 1")
	}
	if backward.Len() != clip.Len() || forward.Len() != clip.Len() || super.Len() != clip.Len() {
		return nil, errors.New("motion flowinter: vector sources and clip differ in length")
	}
	return &FlowInter{clip: clip, super: super, backward: backward, forward: forward, time: time}, nil
}

func (f *FlowInter) Len() int { return f.clip.Len() }

func (f *FlowInter) Format() video.Format { return f.clip.Format() }

// Frame returns the interpolation between frames n-1 and n. Frame 0 has no
// predecessor and is returned unchanged.
func (f *FlowInter) Frame(ctx context.Context, n int) (*video.Frame, error) {
	if err := video.CheckIndex(f.clip, n); err != nil {
		return nil, err
	}
	cur, err := f.clip.Frame(ctx, n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return cur, nil
	}
	prev, err := f.clip.Frame(ctx, n-1)
	if err != nil {
		return nil, err
	}
	toPrev, err := f.forward.FieldAt(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("motion flowinter: forward field %d: %w", n, err)
	}
	toCur, err := f.backward.FieldAt(ctx, n-1)
	if err != nil {
		return nil, fmt.Errorf("motion flowinter: backward field %d: %w", n-1, err)
	}

	t := float64(f.time) / 100
	format := cur.Format()
	planes := make([]video.Plane, format.NumPlanes())
	for i := range planes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sx, sy := 0, 0
		if i > 0 {
			sx, sy = format.ChromaShift()
		}
		planes[i] = blendPlane(prev.Plane(i), cur.Plane(i), toCur, toPrev, t, sx, sy)
	}
	return video.NewFrame(format, planes, cur.Props())
}

// blendPlane warps prev along toCur and cur along toPrev so both land on time
// t, then mixes them with weights (1-t, t).
func blendPlane(prev, cur video.Plane, toCur, toPrev *Field, t float64, sx, sy int) video.Plane {
	out := video.NewPlane(cur.Width, cur.Height)
	scaleX := float64(int(1) << sx)
	scaleY := float64(int(1) << sy)
	for y := 0; y < out.Height; y++ {
		ly := (float64(y)+0.5)*scaleY - 0.5
		for x := 0; x < out.Width; x++ {
			lx := (float64(x)+0.5)*scaleX - 0.5

			bdx, bdy := toCur.Flow(lx, ly)
			fdx, fdy := toPrev.Flow(lx, ly)

			a := bilinear(prev, float64(x)-t*bdx/scaleX, float64(y)-t*bdy/scaleY)
			b := bilinear(cur, float64(x)-(1-t)*fdx/scaleX, float64(y)-(1-t)*fdy/scaleY)
			out.Set(x, y, toSample((1-t)*a+t*b))
		}
	}
	return out
}
