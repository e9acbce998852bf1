package y4m

import (
	"bufio"
	"fmt"
	"io"

	"filldrops/internal/video"
)

// Writer emits a YUV4MPEG2 stream. The header is written before the first
// frame.
type Writer struct {
	w       *bufio.Writer
	header  Header
	started bool
	frames  int
}

// NewWriter returns a writer for frames matching header.Format.
func NewWriter(w io.Writer, header Header) (*Writer, error) {
	if err := header.Format.Validate(); err != nil {
		return nil, fmt.Errorf("y4m writer: %w", err)
	}
	if header.Format.BitDepth != 8 {
		return nil, fmt.Errorf("y4m writer: unsupported bit depth %d", header.Format.BitDepth)
	}
	return &Writer{w: bufio.NewWriterSize(w, 1<<20), header: header}, nil
}

// WriteFrame appends one frame.
func (wr *Writer) WriteFrame(frame *video.Frame) error {
	if frame.Format() != wr.header.Format {
		return fmt.Errorf("y4m writer: frame format %s, stream is %s", frame.Format(), wr.header.Format)
	}
	if !wr.started {
		if _, err := wr.w.Write(wr.header.Marshal()); err != nil {
			return fmt.Errorf("write y4m header: %w", err)
		}
		wr.started = true
	}
	if _, err := wr.w.WriteString(frameMagic + "\n"); err != nil {
		return fmt.Errorf("write frame %d: %w", wr.frames, err)
	}
	for i := 0; i < frame.NumPlanes(); i++ {
		plane := frame.Plane(i)
		for y := 0; y < plane.Height; y++ {
			if _, err := wr.w.Write(plane.Row(y)); err != nil {
				return fmt.Errorf("write frame %d: %w", wr.frames, err)
			}
		}
	}
	wr.frames++
	return nil
}

// Frames returns the number of frames written.
func (wr *Writer) Frames() int { return wr.frames }

// Flush writes buffered data to the underlying writer.
func (wr *Writer) Flush() error {
	if !wr.started {
		if _, err := wr.w.Write(wr.header.Marshal()); err != nil {
			return fmt.Errorf("write y4m header: %w", err)
		}
		wr.started = true
	}
	return wr.w.Flush()
}
