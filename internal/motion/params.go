package motion

import (
	"errors"
	"fmt"
)

// Direction selects which neighbour a Field references.
type Direction int

const (
	// Forward fields reference the preceding frame (n - delta).
	Forward Direction = iota
	// Backward fields reference the following frame (n + delta).
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

const (
	DefaultPel          = 2
	DefaultBlockSize    = 16
	DefaultSearchRadius = 8
	DefaultLambda       = 400
	// MidpointTime is the temporal position, in percent, halfway between two
	// source frames.
	MidpointTime = 50
)

// Params configures block matching.
type Params struct {
	// Pel is the sub-pixel refinement factor: 1, 2 or 4.
	Pel int
	// TrueMotion biases the search toward spatially coherent vectors.
	TrueMotion bool
	Direction  Direction
	// Delta is the frame offset to the reference frame.
	Delta        int
	BlockSize    int
	SearchRadius int
	// Lambda weighs the coherence penalty when TrueMotion is set.
	Lambda int
}

// DefaultParams returns forward, truemotion, half-pel matching on 16x16 blocks.
func DefaultParams() Params {
	return Params{
		Pel:          DefaultPel,
		TrueMotion:   true,
		Direction:    Forward,
		Delta:        1,
		BlockSize:    DefaultBlockSize,
		SearchRadius: DefaultSearchRadius,
		Lambda:       DefaultLambda,
	}
}

// Validate reports whether the parameters are usable.
func (p Params) Validate() error {
	if err := validatePel(p.Pel); err != nil {
		return err
	}
	if err := validateBlockSize(p.BlockSize); err != nil {
		return err
	}
	if p.Delta < 1 {
		return fmt.Errorf("motion: delta must be at least 1, got %d", p.Delta)
	}
	if p.SearchRadius < 1 {
		return fmt.Errorf("motion: search radius must be positive, got %d", p.SearchRadius)
	}
	if p.Lambda < 0 {
		return errors.New("motion: lambda must not be negative")
	}
	if p.Direction != Forward && p.Direction != Backward {
		return fmt.Errorf("motion: unknown direction %d", int(p.Direction))
	}
	return nil
}

func validatePel(pel int) error {
	switch pel {
	case 1, 2, 4:
		return nil
	default:
		return fmt.Errorf("motion: pel must be 1, 2 or 4, got %d", pel)
	}
}

func validateBlockSize(size int) error {
	switch size {
	case 4, 8, 16, 32:
		return nil
	default:
		return fmt.Errorf("motion: block size must be 4, 8, 16 or 32, got %d", size)
	}
}
