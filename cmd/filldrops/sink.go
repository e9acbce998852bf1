package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"filldrops/internal/filldrops"
	"filldrops/internal/media/ffmpeg"
	"filldrops/internal/video"
	"filldrops/internal/y4m"
)

// ErrOutputLocked reports another filldrops process writing the same output.
var ErrOutputLocked = errors.New("output is locked by another run")

// outputSink writes rendered frames as y4m, either straight to a file or
// through an ffmpeg encoder.
type outputSink struct {
	path   string
	lock   *flock.Flock
	dst    io.WriteCloser
	writer *y4m.Writer
	closed bool
}

func openOutput(ctx context.Context, encoder *ffmpeg.Client, path string, header y4m.Header) (*outputSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}

	var dst io.WriteCloser
	if ffmpeg.IsY4M(path) {
		dst, err = os.Create(path)
	} else {
		dst, err = encoder.Encode(ctx, path)
	}
	if err != nil {
		releaseLock(lock)
		return nil, fmt.Errorf("open output: %w", err)
	}
	writer, err := y4m.NewWriter(dst, header)
	if err != nil {
		_ = dst.Close()
		releaseLock(lock)
		return nil, err
	}
	return &outputSink{path: path, lock: lock, dst: dst, writer: writer}, nil
}

func (s *outputSink) WriteResult(_ context.Context, res filldrops.Result) error {
	frame := res.Frame
	if frame == nil {
		return fmt.Errorf("frame %d: nothing to write", res.Index)
	}
	return s.writer.WriteFrame(frame)
}

// Close flushes and closes the destination and releases the lock. The output
// file is removed when cause is non-nil or closing fails. Later calls are
// no-ops.
func (s *outputSink) Close(cause error) error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.writer.Flush()
	if closeErr := s.dst.Close(); err == nil {
		err = closeErr
	}
	if cause != nil || err != nil {
		_ = os.Remove(s.path)
	}
	releaseLock(s.lock)
	return err
}

func releaseLock(lock *flock.Flock) {
	_ = lock.Unlock()
	_ = os.Remove(lock.Path())
}

var (
	_ filldrops.Sink = (*outputSink)(nil)
	_ video.Clip     = (*source)(nil)
)
