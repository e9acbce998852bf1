package filldrops

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"filldrops/internal/video"
)

var grayFormat = video.Format{Width: 4, Height: 4, Subsampling: video.Gray, BitDepth: 8}

// lumaEngine reports |a-b|/100 over the first luma sample.
type lumaEngine struct {
	lo, hi float64
	mu     sync.Mutex
	calls  int
	fail   error
	fixed  *float64
}

func newLumaEngine() *lumaEngine { return &lumaEngine{lo: 0, hi: 1} }

func (e *lumaEngine) Range() (float64, float64) { return e.lo, e.hi }

func (e *lumaEngine) ComputeDiff(_ context.Context, a, b *video.Frame) (float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail != nil {
		return 0, e.fail
	}
	if e.fixed != nil {
		return *e.fixed, nil
	}
	d := float64(a.Plane(0).At(0, 0)) - float64(b.Plane(0).At(0, 0))
	return math.Abs(d) / 100, nil
}

func (e *lumaEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// stubCompensator returns a solid frame of luma 200+n and records requests.
type stubCompensator struct {
	mu       sync.Mutex
	requests []int
	fail     error
	badFmt   bool
	nilFrame bool
}

func (c *stubCompensator) InterpolatedAt(_ context.Context, n int) (*video.Frame, error) {
	c.mu.Lock()
	c.requests = append(c.requests, n)
	c.mu.Unlock()
	switch {
	case c.fail != nil:
		return nil, c.fail
	case c.nilFrame:
		return nil, nil
	case c.badFmt:
		return video.NewSolidFrame(video.Format{Width: 2, Height: 2, Subsampling: video.Gray, BitDepth: 8}, 0, 0)
	}
	return video.NewSolidFrame(grayFormat, byte(200+n), 0)
}

func (c *stubCompensator) requested() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.requests...)
}

// recordingClip counts frame fetches per index.
type recordingClip struct {
	video.Clip
	mu      sync.Mutex
	fetched map[int]int
	failAt  int
}

func (c *recordingClip) Frame(ctx context.Context, n int) (*video.Frame, error) {
	c.mu.Lock()
	c.fetched[n]++
	c.mu.Unlock()
	if c.failAt >= 0 && n == c.failAt {
		return nil, errors.New("decode failure")
	}
	return c.Clip.Frame(ctx, n)
}

func lumaClip(t *testing.T, lumas ...byte) *recordingClip {
	t.Helper()
	frames := make([]*video.Frame, len(lumas))
	for i, l := range lumas {
		f, err := video.NewSolidFrame(grayFormat, l, 0)
		if err != nil {
			t.Fatalf("NewSolidFrame: %v", err)
		}
		frames[i] = f.WithProp(video.PropFrameNumber, i)
	}
	clip, err := video.NewSliceClip(frames...)
	if err != nil {
		t.Fatalf("NewSliceClip: %v", err)
	}
	return &recordingClip{Clip: clip, fetched: map[int]int{}, failAt: -1}
}

func newPipeline(t *testing.T, clip video.Clip, engine DiffEngine, mc MotionCompensator, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(clip, engine, mc, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestDecide(t *testing.T) {
	tests := []struct {
		diff, threshold float64
		want            Decision
	}{
		{0, 0.1, Original},
		{0.0999, 0.1, Original},
		{0.1, 0.1, Interpolated},
		{0.4, 0.1, Interpolated},
		{0, 0, Interpolated},
	}
	for _, tt := range tests {
		if got := Decide(tt.diff, tt.threshold); got != tt.want {
			t.Errorf("Decide(%v, %v) = %v, want %v", tt.diff, tt.threshold, got, tt.want)
		}
	}
}

func TestFiveFrameScenario(t *testing.T) {
	clip := lumaClip(t, 10, 10, 50, 50, 90)
	mc := &stubCompensator{}
	p := newPipeline(t, clip, newLumaEngine(), mc)

	ctx := context.Background()
	var diffs []float64
	var decisions []string
	var lumas []byte
	for n := 0; n < p.Len(); n++ {
		res, err := p.FrameAt(ctx, n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		diffs = append(diffs, res.Diff)
		decisions = append(decisions, res.Decision.String())
		lumas = append(lumas, res.Frame.Plane(0).At(0, 0))
	}

	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff([]float64{0, 0, 0.4, 0, 0.4}, diffs, approx); diff != "" {
		t.Errorf("diffs mismatch (-want +got):\n%s", diff)
	}
	wantDecisions := []string{"original", "original", "interpolated", "original", "interpolated"}
	if diff := cmp.Diff(wantDecisions, decisions); diff != "" {
		t.Errorf("decisions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]byte{10, 10, 202, 50, 204}, lumas); diff != "" {
		t.Errorf("output luma mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 4}, mc.requested()); diff != "" {
		t.Errorf("interpolation requests mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameAtAttachesProps(t *testing.T) {
	clip := lumaClip(t, 10, 60)
	p := newPipeline(t, clip, newLumaEngine(), &stubCompensator{})

	res, err := p.FrameAt(context.Background(), 0)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	props := res.Frame.Props()
	if props[PropDecision] != "original" || props[PropDiff] != 0.0 {
		t.Fatalf("unexpected props %v", props)
	}
	if props[video.PropFrameNumber] != 0 {
		t.Fatalf("source props lost: %v", props)
	}
	// The source frame must not be mutated.
	src, _ := clip.Clip.Frame(context.Background(), 0)
	if _, ok := src.Prop(PropDecision); ok {
		t.Fatal("source frame was mutated")
	}

	res, err = p.FrameAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if got, _ := res.Frame.Prop(PropDecision); got != "interpolated" {
		t.Fatalf("decision prop = %v", got)
	}
}

func TestFirstFrameComparedWithItself(t *testing.T) {
	clip := lumaClip(t, 250, 0)
	p := newPipeline(t, clip, newLumaEngine(), &stubCompensator{})

	diff, err := p.Analyzer().DiffAt(context.Background(), 0)
	if err != nil {
		t.Fatalf("DiffAt: %v", err)
	}
	if diff != 0 {
		t.Fatalf("diff[0] = %v, want 0", diff)
	}
	if clip.fetched[1] != 0 {
		t.Fatal("frame 1 fetched while evaluating frame 0")
	}
}

func TestSingleFrameClip(t *testing.T) {
	clip := lumaClip(t, 77)
	mc := &stubCompensator{}
	p := newPipeline(t, clip, newLumaEngine(), mc)
	res, err := p.FrameAt(context.Background(), 0)
	if err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if res.Decision != Original || !res.Frame.SamePixels(mustFrame(t, clip, 0)) {
		t.Fatalf("single frame not passed through: %+v", res)
	}
	if len(mc.requested()) != 0 {
		t.Fatal("compensator consulted for a single-frame clip")
	}
}

func TestFrameAtIsLazy(t *testing.T) {
	clip := lumaClip(t, 10, 10, 50, 50, 90, 90, 90)
	engine := newLumaEngine()
	mc := &stubCompensator{}
	p := newPipeline(t, clip, engine, mc)

	if _, err := p.FrameAt(context.Background(), 3); err != nil {
		t.Fatalf("FrameAt: %v", err)
	}
	if engine.callCount() != 1 {
		t.Fatalf("diff computed %d times, want 1", engine.callCount())
	}
	for n, count := range clip.fetched {
		if n != 2 && n != 3 {
			t.Fatalf("frame %d fetched %d times", n, count)
		}
	}
	if len(mc.requested()) != 0 {
		t.Fatalf("interpolation computed for kept original: %v", mc.requested())
	}
}

func TestFrameAtIsIdempotent(t *testing.T) {
	clip := lumaClip(t, 10, 10, 50, 50, 90)
	p := newPipeline(t, clip, newLumaEngine(), &stubCompensator{})
	ctx := context.Background()

	for _, n := range []int{4, 0, 2, 2, 4, 1} {
		a, err := p.FrameAt(ctx, n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		b, err := p.FrameAt(ctx, n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		if a.Decision != b.Decision || a.Diff != b.Diff || !a.Frame.SamePixels(b.Frame) {
			t.Fatalf("frame %d differs between requests", n)
		}
	}
}

func TestOrderIndependence(t *testing.T) {
	lumas := []byte{10, 30, 30, 100, 101, 60}
	ctx := context.Background()
	forward := newPipeline(t, lumaClip(t, lumas...), newLumaEngine(), &stubCompensator{})
	reverse := newPipeline(t, lumaClip(t, lumas...), newLumaEngine(), &stubCompensator{})

	got := make([]Decision, len(lumas))
	for n := len(lumas) - 1; n >= 0; n-- {
		res, err := reverse.FrameAt(ctx, n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		got[n] = res.Decision
	}
	for n := range lumas {
		res, err := forward.FrameAt(ctx, n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		if res.Decision != got[n] {
			t.Fatalf("frame %d: decision depends on request order", n)
		}
	}
}

func TestThresholdMonotonic(t *testing.T) {
	lumas := []byte{10, 12, 30, 30, 90, 95, 150}
	thresholds := []float64{0, 0.01, 0.05, 0.1, 0.3, 0.6, 1}
	ctx := context.Background()

	interpolated := func(th float64) map[int]bool {
		p := newPipeline(t, lumaClip(t, lumas...), newLumaEngine(), &stubCompensator{}, WithThreshold(th))
		set := map[int]bool{}
		for n := 0; n < p.Len(); n++ {
			res, err := p.DecisionAt(ctx, n)
			if err != nil {
				t.Fatalf("DecisionAt(%d): %v", n, err)
			}
			if res.Decision == Interpolated {
				set[n] = true
			}
		}
		return set
	}

	prev := interpolated(thresholds[0])
	for _, th := range thresholds[1:] {
		cur := interpolated(th)
		for n := range cur {
			if !prev[n] {
				t.Fatalf("threshold %v interpolates frame %d that a lower threshold kept", th, n)
			}
		}
		prev = cur
	}
}

func TestThresholdZeroInterpolatesEverything(t *testing.T) {
	clip := lumaClip(t, 10, 10, 10)
	mc := &stubCompensator{}
	p := newPipeline(t, clip, newLumaEngine(), mc, WithThreshold(0))
	for n := 0; n < p.Len(); n++ {
		res, err := p.FrameAt(context.Background(), n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		if res.Decision != Interpolated {
			t.Fatalf("frame %d kept with threshold 0", n)
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2}, mc.requested()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestThresholdAboveEngineMaxKeepsEverything(t *testing.T) {
	clip := lumaClip(t, 0, 255, 0, 255)
	engine := newLumaEngine()
	engine.hi = 3
	mc := &stubCompensator{}
	p := newPipeline(t, clip, engine, mc, WithThreshold(2.6))
	for n := 0; n < p.Len(); n++ {
		res, err := p.FrameAt(context.Background(), n)
		if err != nil {
			t.Fatalf("FrameAt(%d): %v", n, err)
		}
		if res.Decision != Original || !res.Frame.SamePixels(mustFrame(t, clip, n)) {
			t.Fatalf("frame %d not passed through", n)
		}
	}
	if len(mc.requested()) != 0 {
		t.Fatalf("compensator consulted: %v", mc.requested())
	}
}

func TestNewValidation(t *testing.T) {
	clip := lumaClip(t, 1, 2)
	tests := []struct {
		name    string
		clip    video.Clip
		engine  DiffEngine
		mc      MotionCompensator
		opts    []Option
		wantErr error
	}{
		{name: "nil clip", engine: newLumaEngine(), mc: &stubCompensator{}, wantErr: ErrInvalidInput},
		{name: "nil engine", clip: clip, mc: &stubCompensator{}, wantErr: ErrInvalidConfig},
		{name: "nil compensator", clip: clip, engine: newLumaEngine(), wantErr: ErrInvalidConfig},
		{name: "negative threshold", clip: clip, engine: newLumaEngine(), mc: &stubCompensator{}, opts: []Option{WithThreshold(-0.1)}, wantErr: ErrInvalidConfig},
		{name: "threshold above range", clip: clip, engine: newLumaEngine(), mc: &stubCompensator{}, opts: []Option{WithThreshold(1.5)}, wantErr: ErrInvalidConfig},
		{name: "nan threshold", clip: clip, engine: newLumaEngine(), mc: &stubCompensator{}, opts: []Option{WithThreshold(math.NaN())}, wantErr: ErrInvalidConfig},
		{name: "bad range", clip: clip, engine: &lumaEngine{lo: 1, hi: 0}, mc: &stubCompensator{}, wantErr: ErrInvalidConfig},
		{name: "boundary lo", clip: clip, engine: newLumaEngine(), mc: &stubCompensator{}, opts: []Option{WithThreshold(0)}},
		{name: "boundary hi", clip: clip, engine: newLumaEngine(), mc: &stubCompensator{}, opts: []Option{WithThreshold(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.clip, tt.engine, tt.mc, tt.opts...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultThreshold(t *testing.T) {
	p := newPipeline(t, lumaClip(t, 1), newLumaEngine(), &stubCompensator{})
	if p.Threshold() != DefaultThreshold {
		t.Fatalf("Threshold = %v, want %v", p.Threshold(), DefaultThreshold)
	}
}

func TestFrameAtOutOfRange(t *testing.T) {
	p := newPipeline(t, lumaClip(t, 1, 2), newLumaEngine(), &stubCompensator{})
	for _, n := range []int{-1, 2} {
		if _, err := p.FrameAt(context.Background(), n); !errors.Is(err, video.ErrFrameRange) {
			t.Fatalf("FrameAt(%d) error = %v", n, err)
		}
	}
}

func TestDelegateFailuresPropagate(t *testing.T) {
	boom := errors.New("boom")
	nan := math.NaN()
	outside := 1.5

	tests := []struct {
		name     string
		setup    func(*recordingClip, *lumaEngine, *stubCompensator)
		index    int
		delegate Delegate
		wrapped  error
	}{
		{name: "source current", setup: func(c *recordingClip, _ *lumaEngine, _ *stubCompensator) { c.failAt = 2 }, index: 2, delegate: DelegateSource},
		{name: "source previous", setup: func(c *recordingClip, _ *lumaEngine, _ *stubCompensator) { c.failAt = 1 }, index: 2, delegate: DelegateSource},
		{name: "diff error", setup: func(_ *recordingClip, e *lumaEngine, _ *stubCompensator) { e.fail = boom }, index: 1, delegate: DelegateDiff, wrapped: boom},
		{name: "diff nan", setup: func(_ *recordingClip, e *lumaEngine, _ *stubCompensator) { e.fixed = &nan }, index: 1, delegate: DelegateDiff, wrapped: ErrMalformedOutput},
		{name: "diff outside range", setup: func(_ *recordingClip, e *lumaEngine, _ *stubCompensator) { e.fixed = &outside }, index: 1, delegate: DelegateDiff, wrapped: ErrMalformedOutput},
		{name: "interpolate error", setup: func(_ *recordingClip, _ *lumaEngine, m *stubCompensator) { m.fail = boom }, index: 2, delegate: DelegateInterpolate, wrapped: boom},
		{name: "interpolate nil", setup: func(_ *recordingClip, _ *lumaEngine, m *stubCompensator) { m.nilFrame = true }, index: 2, delegate: DelegateInterpolate, wrapped: ErrMalformedOutput},
		{name: "interpolate format", setup: func(_ *recordingClip, _ *lumaEngine, m *stubCompensator) { m.badFmt = true }, index: 2, delegate: DelegateInterpolate, wrapped: ErrMalformedOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := lumaClip(t, 10, 10, 90)
			engine := newLumaEngine()
			mc := &stubCompensator{}
			tt.setup(clip, engine, mc)
			p := newPipeline(t, clip, engine, mc)

			_, err := p.FrameAt(context.Background(), tt.index)
			var de *DelegateError
			if !errors.As(err, &de) {
				t.Fatalf("error %v is not a DelegateError", err)
			}
			if de.Delegate != tt.delegate {
				t.Fatalf("delegate = %s, want %s", de.Delegate, tt.delegate)
			}
			if tt.wrapped != nil && !errors.Is(err, tt.wrapped) {
				t.Fatalf("error %v does not wrap %v", err, tt.wrapped)
			}
		})
	}
}

func TestPipelineIsClip(t *testing.T) {
	var _ video.Clip = (*Pipeline)(nil)
	p := newPipeline(t, lumaClip(t, 10, 90), newLumaEngine(), &stubCompensator{})
	if p.Len() != 2 || p.Format() != grayFormat {
		t.Fatalf("unexpected clip shape %d %s", p.Len(), p.Format())
	}
	frame, err := p.Frame(context.Background(), 1)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if frame.Plane(0).At(0, 0) != 201 {
		t.Fatalf("Frame(1) luma = %d", frame.Plane(0).At(0, 0))
	}
}

func mustFrame(t *testing.T, clip video.Clip, n int) *video.Frame {
	t.Helper()
	f, err := clip.Frame(context.Background(), n)
	if err != nil {
		t.Fatalf("Frame(%d): %v", n, err)
	}
	return f
}
