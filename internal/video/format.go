package video

import (
	"errors"
	"fmt"
	"strings"
)

// Subsampling identifies the chroma layout of a frame.
type Subsampling int

const (
	// Gray carries a single luma plane.
	Gray Subsampling = iota
	// YUV420 halves chroma horizontally and vertically.
	YUV420
	// YUV422 halves chroma horizontally.
	YUV422
	// YUV444 carries full resolution chroma.
	YUV444
)

// String returns the canonical y4m-style name of the layout.
func (s Subsampling) String() string {
	switch s {
	case Gray:
		return "mono"
	case YUV420:
		return "420"
	case YUV422:
		return "422"
	case YUV444:
		return "444"
	default:
		return fmt.Sprintf("subsampling(%d)", int(s))
	}
}

// ParseSubsampling maps a layout name back to its Subsampling value.
func ParseSubsampling(value string) (Subsampling, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mono", "gray":
		return Gray, nil
	case "420", "420jpeg", "420paldv", "420mpeg2", "yuv420p":
		return YUV420, nil
	case "422", "yuv422p":
		return YUV422, nil
	case "444", "yuv444p":
		return YUV444, nil
	default:
		return 0, fmt.Errorf("unsupported chroma layout %q", value)
	}
}

// Format describes the fixed geometry shared by every frame of a clip.
type Format struct {
	Width       int
	Height      int
	Subsampling Subsampling
	BitDepth    int
}

// Validate reports whether the format can describe real frames.
func (f Format) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", f.Width, f.Height)
	}
	if f.BitDepth != 8 {
		return fmt.Errorf("unsupported bit depth %d (only 8-bit is supported)", f.BitDepth)
	}
	switch f.Subsampling {
	case Gray, YUV444:
	case YUV420:
		if f.Width%2 != 0 || f.Height%2 != 0 {
			return errors.New("4:2:0 frames require even dimensions")
		}
	case YUV422:
		if f.Width%2 != 0 {
			return errors.New("4:2:2 frames require an even width")
		}
	default:
		return fmt.Errorf("unknown subsampling %d", int(f.Subsampling))
	}
	return nil
}

// NumPlanes returns the number of sample planes carried per frame.
func (f Format) NumPlanes() int {
	if f.Subsampling == Gray {
		return 1
	}
	return 3
}

// ChromaShift returns the horizontal and vertical log2 chroma reduction.
func (f Format) ChromaShift() (sx, sy int) {
	switch f.Subsampling {
	case YUV420:
		return 1, 1
	case YUV422:
		return 1, 0
	default:
		return 0, 0
	}
}

// PlaneSize returns the dimensions of plane i.
func (f Format) PlaneSize(i int) (width, height int) {
	if i == 0 {
		return f.Width, f.Height
	}
	sx, sy := f.ChromaShift()
	return f.Width >> sx, f.Height >> sy
}

// FrameSize returns the number of payload bytes in one planar frame.
func (f Format) FrameSize() int {
	total := 0
	for i := 0; i < f.NumPlanes(); i++ {
		w, h := f.PlaneSize(i)
		total += w * h
	}
	return total
}

// MaxValue returns the largest representable sample value.
func (f Format) MaxValue() int {
	return 1<<f.BitDepth - 1
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%d %s %d-bit", f.Width, f.Height, f.Subsampling, f.BitDepth)
}
