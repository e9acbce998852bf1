package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeExecutor struct {
	binary string
	args   []string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) error {
	f.binary = binary
	f.args = args
	return f.err
}

func TestConvertBuildsArguments(t *testing.T) {
	exec := &fakeExecutor{}
	client := New("", WithExecutor(exec))
	if err := client.Convert(context.Background(), "in.mkv", "/tmp/work.y4m", "yuv420p"); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if exec.binary != "ffmpeg" {
		t.Fatalf("binary = %q", exec.binary)
	}
	want := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", "in.mkv", "-map", "0:v:0", "-an", "-sn",
		"-pix_fmt", "yuv420p", "-f", "yuv4mpegpipe", "/tmp/work.y4m"}
	if diff := cmp.Diff(want, exec.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertWrapsFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	client := New("/opt/ffmpeg", WithExecutor(&fakeExecutor{err: boom}))
	if err := client.Convert(context.Background(), "in.mkv", "out.y4m", ""); !errors.Is(err, boom) {
		t.Fatalf("Convert error = %v", err)
	}
	if err := client.Convert(context.Background(), " ", "out.y4m", ""); err == nil {
		t.Fatal("expected error for empty source")
	}
}

type fakeProcess struct {
	bytes.Buffer
	closed  bool
	waited  bool
	waitErr error
}

func (p *fakeProcess) Close() error {
	p.closed = true
	return nil
}

func (p *fakeProcess) Wait() error {
	p.waited = true
	return p.waitErr
}

type fakeStreamer struct {
	binary string
	args   []string
	proc   *fakeProcess
	err    error
}

func (f *fakeStreamer) Start(_ context.Context, binary string, args []string) (Process, error) {
	f.binary = binary
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return f.proc, nil
}

func TestEncodeStreamsThroughStreamer(t *testing.T) {
	streamer := &fakeStreamer{proc: &fakeProcess{}}
	client := New("/opt/ffmpeg", WithStreamer(streamer), WithEncoderArgs("-c:v", "ffv1"))
	enc, err := client.Encode(context.Background(), "out.mkv")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := enc.Write([]byte("YUV4MPEG2 W2 H2\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if streamer.binary != "/opt/ffmpeg" {
		t.Fatalf("binary = %q", streamer.binary)
	}
	if diff := cmp.Diff(EncodeArgs("out.mkv", []string{"-c:v", "ffv1"}), streamer.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if got := streamer.proc.String(); got != "YUV4MPEG2 W2 H2\n" {
		t.Fatalf("stdin = %q", got)
	}
	if !streamer.proc.closed || !streamer.proc.waited {
		t.Fatalf("expected stdin closed and process waited, got %+v", streamer.proc)
	}
}

func TestEncodeWrapsFailures(t *testing.T) {
	boom := errors.New("exec: not found")
	client := New("", WithStreamer(&fakeStreamer{err: boom}))
	if _, err := client.Encode(context.Background(), "out.mkv"); !errors.Is(err, boom) {
		t.Fatalf("Encode error = %v", err)
	}
	if _, err := client.Encode(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty destination")
	}

	exitErr := errors.New("exit status 1")
	client = New("", WithStreamer(&fakeStreamer{proc: &fakeProcess{waitErr: exitErr}}))
	enc, err := client.Encode(context.Background(), "out.mkv")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := enc.Close(); !errors.Is(err, exitErr) {
		t.Fatalf("Close error = %v", err)
	}
}

func TestEncodeArgs(t *testing.T) {
	got := EncodeArgs("out.mkv", []string{"-c:v", "ffv1"})
	want := []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "yuv4mpegpipe", "-i", "pipe:0", "-c:v", "ffv1", "out.mkv"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestIsY4M(t *testing.T) {
	tests := map[string]bool{"a.y4m": true, "B.Y4M": true, "a.mkv": false, "y4m": false}
	for path, want := range tests {
		if got := IsY4M(path); got != want {
			t.Errorf("IsY4M(%q) = %v", path, got)
		}
	}
}
