package testsupport

import (
	"os"
	"testing"

	"filldrops/internal/video"
	"filldrops/internal/y4m"
)

// SolidFrames builds one flat frame per luma value with neutral chroma.
func SolidFrames(t testing.TB, format video.Format, lumas ...byte) []*video.Frame {
	t.Helper()
	frames := make([]*video.Frame, len(lumas))
	for i, l := range lumas {
		f, err := video.NewSolidFrame(format, l, 128)
		if err != nil {
			t.Fatalf("NewSolidFrame: %v", err)
		}
		frames[i] = f
	}
	return frames
}

// SolidClip wraps SolidFrames in an in-memory clip.
func SolidClip(t testing.TB, format video.Format, lumas ...byte) *video.SliceClip {
	t.Helper()
	clip, err := video.NewSliceClip(SolidFrames(t, format, lumas...)...)
	if err != nil {
		t.Fatalf("NewSliceClip: %v", err)
	}
	return clip
}

// WriteY4M stores frames as a YUV4MPEG2 file at path.
func WriteY4M(t testing.TB, path string, frames ...*video.Frame) {
	t.Helper()
	if len(frames) == 0 {
		t.Fatal("WriteY4M: no frames")
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer file.Close()
	w, err := y4m.NewWriter(file, y4m.DefaultHeader(frames[0].Format()))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
