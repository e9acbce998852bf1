package y4m

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"filldrops/internal/video"
)

// Reader serves frames of a YUV4MPEG2 stream by index. It is safe for
// concurrent use when the underlying ReaderAt is.
type Reader struct {
	src     io.ReaderAt
	closer  io.Closer
	header  Header
	offsets []int64
}

// Open indexes the stream stored at path.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open y4m: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat y4m: %w", err)
	}
	r, err := NewReader(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = file
	return r, nil
}

// NewReader parses the header and frame index of a stream of size bytes.
func NewReader(src io.ReaderAt, size int64) (*Reader, error) {
	line, next, err := readLine(src, 0, size)
	if err != nil {
		return nil, err
	}
	header, err := ParseHeader(line)
	if err != nil {
		return nil, err
	}
	frameSize := int64(header.Format.FrameSize())
	var offsets []int64
	for next < size {
		line, data, err := readLine(src, next, size)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(offsets), err)
		}
		if !bytes.HasPrefix(line, []byte(frameMagic)) {
			return nil, fmt.Errorf("%w: frame %d has no %s marker", ErrFormat, len(offsets), frameMagic)
		}
		if data+frameSize > size {
			return nil, fmt.Errorf("%w: frame %d truncated", ErrFormat, len(offsets))
		}
		offsets = append(offsets, data)
		next = data + frameSize
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: no frames", ErrFormat)
	}
	return &Reader{src: src, header: header, offsets: offsets}, nil
}

// readLine returns the bytes at off up to a newline and the offset after it.
func readLine(src io.ReaderAt, off, size int64) ([]byte, int64, error) {
	n := min(int64(maxHeader), size-off)
	buf := make([]byte, n)
	read, err := src.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("read y4m: %w", err)
	}
	buf = buf[:read]
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		return nil, 0, fmt.Errorf("%w: unterminated header line", ErrFormat)
	}
	return buf[:idx], off + int64(idx) + 1, nil
}

// Header returns the parsed stream header.
func (r *Reader) Header() Header { return r.header }

func (r *Reader) Len() int { return len(r.offsets) }

func (r *Reader) Format() video.Format { return r.header.Format }

// Frame decodes frame n. The returned frame carries its index in
// video.PropFrameNumber.
func (r *Reader) Frame(ctx context.Context, n int) (*video.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := video.CheckIndex(r, n); err != nil {
		return nil, err
	}
	format := r.header.Format
	buf := make([]byte, format.FrameSize())
	if _, err := r.src.ReadAt(buf, r.offsets[n]); err != nil {
		return nil, fmt.Errorf("read frame %d: %w", n, err)
	}
	planes := make([]video.Plane, format.NumPlanes())
	off := 0
	for i := range planes {
		w, h := format.PlaneSize(i)
		planes[i] = video.Plane{Width: w, Height: h, Stride: w, Pix: buf[off : off+w*h : off+w*h]}
		off += w * h
	}
	return video.NewFrame(format, planes, video.Props{video.PropFrameNumber: n})
}

// Close releases the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
