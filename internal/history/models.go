package history

import "time"

// Kind distinguishes what produced a run.
type Kind string

const (
	KindRender  Kind = "run"
	KindAnalyze Kind = "analyze"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded invocation.
type Run struct {
	ID           string
	Kind         Kind
	InputPath    string
	OutputPath   string
	Threshold    float64
	Status       Status
	Frames       int
	Original     int
	Interpolated int
	MeanDiff     float64
	MaxDiff      float64
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the totals recorded when a run completes.
type Outcome struct {
	Frames       int
	Original     int
	Interpolated int
	MeanDiff     float64
	MaxDiff      float64
	Err          error
}

// FrameRecord is the stored decision of one frame.
type FrameRecord struct {
	Index    int
	Diff     float64
	Decision string
}
