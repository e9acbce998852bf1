package filldrops

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports an input stream that cannot be processed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig reports a threshold or collaborator that cannot be used.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMalformedOutput marks delegate results that violate their contract.
	ErrMalformedOutput = errors.New("malformed delegate output")
)

// Delegate names which collaborator failed.
type Delegate string

const (
	DelegateSource      Delegate = "source"
	DelegateDiff        Delegate = "diff"
	DelegateInterpolate Delegate = "interpolate"
)

// DelegateError wraps a collaborator failure for a single frame index. It is
// never downgraded to a fallback frame.
type DelegateError struct {
	Delegate Delegate
	Index    int
	Err      error
}

func (e *DelegateError) Error() string {
	return fmt.Sprintf("filldrops: %s failed at frame %d: %v", e.Delegate, e.Index, e.Err)
}

func (e *DelegateError) Unwrap() error { return e.Err }

func delegateErr(d Delegate, n int, err error) error {
	return &DelegateError{Delegate: d, Index: n, Err: err}
}
