package y4m

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"filldrops/internal/video"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    video.Format
		rate    Rational
		wantErr bool
	}{
		{name: "default colorspace", line: "YUV4MPEG2 W8 H4 F30000:1001 Ip A1:1", want: video.Format{Width: 8, Height: 4, Subsampling: video.YUV420, BitDepth: 8}, rate: Rational{30000, 1001}},
		{name: "mono", line: "YUV4MPEG2 W3 H3 F25:1 Cmono", want: video.Format{Width: 3, Height: 3, Subsampling: video.Gray, BitDepth: 8}, rate: Rational{25, 1}},
		{name: "444 with extras", line: "YUV4MPEG2 W2 H2 F24:1 C444 XYSCSS=444 XCOLORRANGE=FULL", want: video.Format{Width: 2, Height: 2, Subsampling: video.YUV444, BitDepth: 8}, rate: Rational{24, 1}},
		{name: "bad magic", line: "YUV4MPEG W2 H2", wantErr: true},
		{name: "high bit depth", line: "YUV4MPEG2 W2 H2 C420p10", wantErr: true},
		{name: "odd 420", line: "YUV4MPEG2 W3 H2 C420jpeg", wantErr: true},
		{name: "bad ratio", line: "YUV4MPEG2 W2 H2 F25", wantErr: true},
		{name: "unknown tag", line: "YUV4MPEG2 W2 H2 Z1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader([]byte(tt.line))
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Fatalf("ParseHeader error = %v, want ErrFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader: %v", err)
			}
			if h.Format != tt.want || h.FrameRate != tt.rate {
				t.Fatalf("got %s @ %s, want %s @ %s", h.Format, h.FrameRate, tt.want, tt.rate)
			}
		})
	}
}

func TestHeaderMarshalKeepsExtras(t *testing.T) {
	h, err := ParseHeader([]byte("YUV4MPEG2 W4 H2 F24:1 Ip A1:1 C420mpeg2 XYSCSS=420MPEG2"))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	want := "YUV4MPEG2 W4 H2 F24:1 Ip A1:1 C420mpeg2 XYSCSS=420MPEG2\n"
	if got := string(h.Marshal()); got != want {
		t.Fatalf("Marshal = %q, want %q", got, want)
	}
}

func testFrames(t *testing.T, format video.Format, count int) []*video.Frame {
	t.Helper()
	frames := make([]*video.Frame, count)
	for n := range frames {
		planes := make([]video.Plane, format.NumPlanes())
		for i := range planes {
			w, h := format.PlaneSize(i)
			planes[i] = video.NewPlane(w, h)
			for j := range planes[i].Pix {
				planes[i].Pix[j] = byte(n*31 + i*7 + j)
			}
		}
		f, err := video.NewFrame(format, planes, nil)
		if err != nil {
			t.Fatalf("NewFrame: %v", err)
		}
		frames[n] = f
	}
	return frames
}

func TestWriteThenRead(t *testing.T) {
	format := video.Format{Width: 6, Height: 4, Subsampling: video.YUV420, BitDepth: 8}
	frames := testFrames(t, format, 3)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, DefaultHeader(format))
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

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Len() != 3 || r.Format() != format {
		t.Fatalf("reader shape %d %s", r.Len(), r.Format())
	}
	// Random access out of order.
	for _, n := range []int{2, 0, 1} {
		got, err := r.Frame(context.Background(), n)
		if err != nil {
			t.Fatalf("Frame(%d): %v", n, err)
		}
		if !got.SamePixels(frames[n]) {
			t.Fatalf("frame %d pixels differ", n)
		}
		if num, _ := got.Prop(video.PropFrameNumber); num != n {
			t.Fatalf("frame %d number prop = %v", n, num)
		}
	}
	if _, err := r.Frame(context.Background(), 3); !errors.Is(err, video.ErrFrameRange) {
		t.Fatalf("Frame(3) error = %v", err)
	}
}

func TestReaderAcceptsFrameParameters(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("YUV4MPEG2 W2 H2 F25:1 Cmono\n")
	buf.WriteString("FRAME Ixyz\n")
	buf.Write([]byte{1, 2, 3, 4})
	buf.WriteString("FRAME\n")
	buf.Write([]byte{5, 6, 7, 8})

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	f, err := r.Frame(context.Background(), 1)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if diff := cmp.Diff([]byte{5, 6, 7, 8}, f.Plane(0).Pix); diff != "" {
		t.Fatalf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderRejectsMalformedStreams(t *testing.T) {
	tests := map[string]string{
		"no frames":      "YUV4MPEG2 W2 H2 Cmono\n",
		"truncated":      "YUV4MPEG2 W2 H2 Cmono\nFRAME\n\x01\x02",
		"missing marker": "YUV4MPEG2 W2 H2 Cmono\nFRAMX\n\x01\x02\x03\x04",
		"no newline":     "YUV4MPEG2 W2 H2 Cmono",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader([]byte(data)), int64(len(data)))
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("NewReader error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	format := video.Format{Width: 2, Height: 2, Subsampling: video.Gray, BitDepth: 8}
	path := filepath.Join(t.TempDir(), "clip.y4m")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w, err := NewWriter(file, DefaultHeader(format))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, f := range testFrames(t, format, 2) {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	file.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if r.Len() != 2 || r.Header().Colorspace != "mono" {
		t.Fatalf("unexpected reader %d %q", r.Len(), r.Header().Colorspace)
	}
}

func TestWriterRejectsMismatchedFrame(t *testing.T) {
	format := video.Format{Width: 2, Height: 2, Subsampling: video.Gray, BitDepth: 8}
	w, err := NewWriter(&bytes.Buffer{}, DefaultHeader(format))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	other := testFrames(t, video.Format{Width: 4, Height: 2, Subsampling: video.Gray, BitDepth: 8}, 1)[0]
	if err := w.WriteFrame(other); err == nil {
		t.Fatal("expected format mismatch error")
	}
}
