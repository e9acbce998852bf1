package planestats

import (
	"context"
	"math"
	"testing"

	"filldrops/internal/video"
)

var grayFormat = video.Format{Width: 4, Height: 2, Subsampling: video.Gray, BitDepth: 8}

func solid(t *testing.T, format video.Format, luma byte) *video.Frame {
	t.Helper()
	frame, err := video.NewSolidFrame(format, luma, 128)
	if err != nil {
		t.Fatalf("NewSolidFrame: %v", err)
	}
	return frame
}

func TestComputeStats(t *testing.T) {
	a := video.NewPlane(2, 2)
	copy(a.Pix, []byte{0, 255, 10, 20})
	b := video.NewPlane(2, 2)
	copy(b.Pix, []byte{0, 0, 10, 30})

	stats, err := Compute(a, b, 255)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if stats.Min != 0 || stats.Max != 255 {
		t.Fatalf("unexpected min/max %d/%d", stats.Min, stats.Max)
	}
	wantDiff := (255.0 + 10.0) / 4 / 255
	if math.Abs(stats.Diff-wantDiff) > 1e-12 {
		t.Fatalf("diff = %v, want %v", stats.Diff, wantDiff)
	}
	wantAvg := (0.0 + 255 + 10 + 20) / 4 / 255
	if math.Abs(stats.Average-wantAvg) > 1e-12 {
		t.Fatalf("average = %v, want %v", stats.Average, wantAvg)
	}
}

func TestComputeRejectsMismatch(t *testing.T) {
	if _, err := Compute(video.NewPlane(2, 2), video.NewPlane(3, 2), 255); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestEngineSelfComparisonIsZero(t *testing.T) {
	frame := solid(t, grayFormat, 77)
	diff, err := NewEngine().ComputeDiff(context.Background(), frame, frame)
	if err != nil {
		t.Fatalf("ComputeDiff: %v", err)
	}
	if diff != 0 {
		t.Fatalf("self diff = %v, want 0", diff)
	}
}

func TestEngineMaximumDifferenceIsOne(t *testing.T) {
	diff, err := NewEngine().ComputeDiff(context.Background(), solid(t, grayFormat, 0), solid(t, grayFormat, 255))
	if err != nil {
		t.Fatalf("ComputeDiff: %v", err)
	}
	if diff != 1 {
		t.Fatalf("diff = %v, want 1", diff)
	}
	lo, hi := NewEngine().Range()
	if lo != 0 || hi != 1 {
		t.Fatalf("unexpected range [%v, %v]", lo, hi)
	}
}

func TestEngineIgnoresChroma(t *testing.T) {
	format := video.Format{Width: 4, Height: 2, Subsampling: video.YUV444, BitDepth: 8}
	a, _ := video.NewSolidFrame(format, 50, 0)
	b, _ := video.NewSolidFrame(format, 50, 255)
	diff, err := NewEngine().ComputeDiff(context.Background(), a, b)
	if err != nil {
		t.Fatalf("ComputeDiff: %v", err)
	}
	if diff != 0 {
		t.Fatalf("luma diff = %v, want 0", diff)
	}
	chroma, err := NewPlaneEngine(1).ComputeDiff(context.Background(), a, b)
	if err != nil {
		t.Fatalf("ComputeDiff chroma: %v", err)
	}
	if chroma != 1 {
		t.Fatalf("chroma diff = %v, want 1", chroma)
	}
}

func TestEngineErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := NewEngine().ComputeDiff(ctx, nil, solid(t, grayFormat, 0)); err == nil {
		t.Fatal("expected nil frame error")
	}
	other := solid(t, video.Format{Width: 2, Height: 2, Subsampling: video.Gray, BitDepth: 8}, 0)
	if _, err := NewEngine().ComputeDiff(ctx, solid(t, grayFormat, 0), other); err == nil {
		t.Fatal("expected format mismatch error")
	}
	if _, err := NewPlaneEngine(2).ComputeDiff(ctx, solid(t, grayFormat, 0), solid(t, grayFormat, 0)); err == nil {
		t.Fatal("expected missing plane error")
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewEngine().ComputeDiff(cancelled, solid(t, grayFormat, 0), solid(t, grayFormat, 0)); err == nil {
		t.Fatal("expected context error")
	}
}
