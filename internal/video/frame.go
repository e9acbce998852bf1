package video

import (
	"bytes"
	"fmt"
	"maps"
)

// Plane is a single 8-bit sample plane. Pix must not be modified once the
// plane is attached to a Frame.
type Plane struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewPlane allocates a zeroed plane with a tight stride.
func NewPlane(width, height int) Plane {
	return Plane{Width: width, Height: height, Stride: width, Pix: make([]byte, width*height)}
}

// Row returns the samples of row y.
func (p Plane) Row(y int) []byte {
	start := y * p.Stride
	return p.Pix[start : start+p.Width]
}

// At returns the sample at (x, y) with coordinates clamped to the plane.
func (p Plane) At(x, y int) byte {
	x = clamp(x, 0, p.Width-1)
	y = clamp(y, 0, p.Height-1)
	return p.Pix[y*p.Stride+x]
}

// Set writes a sample. Only valid while a plane is still being built.
func (p Plane) Set(x, y int, value byte) {
	p.Pix[y*p.Stride+x] = value
}

// Fill sets every sample of a plane under construction.
func (p Plane) Fill(value byte) {
	for y := 0; y < p.Height; y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+p.Width]
		for x := range row {
			row[x] = value
		}
	}
}

func (p Plane) equal(other Plane) bool {
	if p.Width != other.Width || p.Height != other.Height {
		return false
	}
	for y := 0; y < p.Height; y++ {
		if !bytes.Equal(p.Row(y), other.Row(y)) {
			return false
		}
	}
	return true
}

// Props carries per-frame metadata. Frames hand out copies so callers can
// never mutate a frame's own map.
type Props map[string]any

// Clone returns a shallow copy of the map.
func (p Props) Clone() Props {
	if p == nil {
		return Props{}
	}
	return maps.Clone(p)
}

// Frame is an immutable picture: planes plus attached properties.
type Frame struct {
	format Format
	planes []Plane
	props  Props
}

// NewFrame validates plane geometry against format and returns a frame that
// owns the supplied planes.
func NewFrame(format Format, planes []Plane, props Props) (*Frame, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("new frame: %w", err)
	}
	if len(planes) != format.NumPlanes() {
		return nil, fmt.Errorf("new frame: expected %d planes, got %d", format.NumPlanes(), len(planes))
	}
	for i, plane := range planes {
		w, h := format.PlaneSize(i)
		if plane.Width != w || plane.Height != h {
			return nil, fmt.Errorf("new frame: plane %d is %dx%d, want %dx%d", i, plane.Width, plane.Height, w, h)
		}
		if plane.Stride < plane.Width || len(plane.Pix) < (plane.Height-1)*plane.Stride+plane.Width {
			return nil, fmt.Errorf("new frame: plane %d buffer too small", i)
		}
	}
	return &Frame{format: format, planes: planes, props: props.Clone()}, nil
}

// NewSolidFrame builds a frame filled with constant luma and chroma values.
func NewSolidFrame(format Format, luma, chroma byte) (*Frame, error) {
	planes := make([]Plane, format.NumPlanes())
	for i := range planes {
		w, h := format.PlaneSize(i)
		planes[i] = NewPlane(w, h)
		if i == 0 {
			planes[i].Fill(luma)
		} else {
			planes[i].Fill(chroma)
		}
	}
	return NewFrame(format, planes, nil)
}

// Format returns the frame geometry.
func (f *Frame) Format() Format { return f.format }

// NumPlanes returns the number of planes.
func (f *Frame) NumPlanes() int { return len(f.planes) }

// Plane returns plane i. Its samples must be treated as read-only.
func (f *Frame) Plane(i int) Plane { return f.planes[i] }

// Props returns a copy of the frame properties.
func (f *Frame) Props() Props { return f.props.Clone() }

// Prop looks up a single property.
func (f *Frame) Prop(key string) (any, bool) {
	value, ok := f.props[key]
	return value, ok
}

// WithProp returns a frame sharing this frame's planes with key set to value.
// The receiver is left untouched.
func (f *Frame) WithProp(key string, value any) *Frame {
	props := f.props.Clone()
	props[key] = value
	return &Frame{format: f.format, planes: f.planes, props: props}
}

// WithProps returns a frame sharing this frame's planes with every entry of
// extra merged over the existing properties.
func (f *Frame) WithProps(extra Props) *Frame {
	props := f.props.Clone()
	for k, v := range extra {
		props[k] = v
	}
	return &Frame{format: f.format, planes: f.planes, props: props}
}

// SamePixels reports whether both frames carry identical geometry and samples.
func (f *Frame) SamePixels(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.format != other.format || len(f.planes) != len(other.planes) {
		return false
	}
	for i := range f.planes {
		if !f.planes[i].equal(other.planes[i]) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
