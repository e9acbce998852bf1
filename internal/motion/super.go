package motion

import (
	"context"
	"errors"
	"fmt"

	"filldrops/internal/video"
)

// SuperFrame holds the search planes derived from one source frame.
type SuperFrame struct {
	// Levels[0] is the full resolution luma plane; each further level halves it.
	Levels []video.Plane
	// Fine is Levels[0] upsampled by Pel for sub-pixel matching.
	Fine video.Plane
	Pel  int
}

// Super lazily derives SuperFrames from a clip.
type Super struct {
	clip      video.Clip
	pel       int
	blockSize int
	levels    int
}

// NewSuper prepares a super clip. The pyramid depth is chosen so the
// coarsest level still fits at least one block in each dimension.
func NewSuper(clip video.Clip, pel, blockSize int) (*Super, error) {
	if clip == nil {
		return nil, errors.New("motion super: nil clip")
	}
	if err := validatePel(pel); err != nil {
		return nil, err
	}
	if err := validateBlockSize(blockSize); err != nil {
		return nil, err
	}
	format := clip.Format()
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("motion super: %w", err)
	}
	levels := 1
	w, h := format.Width, format.Height
	for w/2 >= blockSize && h/2 >= blockSize {
		w /= 2
		h /= 2
		levels++
	}
	return &Super{clip: clip, pel: pel, blockSize: blockSize, levels: levels}, nil
}

func (s *Super) Len() int { return s.clip.Len() }

func (s *Super) Pel() int { return s.pel }

func (s *Super) BlockSize() int { return s.blockSize }

// LevelCount returns the pyramid depth.
func (s *Super) LevelCount() int { return s.levels }

// FrameAt builds the super frame for source index n.
func (s *Super) FrameAt(ctx context.Context, n int) (*SuperFrame, error) {
	frame, err := s.clip.Frame(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("motion super: frame %d: %w", n, err)
	}
	levels := make([]video.Plane, s.levels)
	levels[0] = frame.Plane(0)
	for k := 1; k < s.levels; k++ {
		levels[k] = downsample(levels[k-1])
	}
	return &SuperFrame{Levels: levels, Fine: upsample(levels[0], s.pel), Pel: s.pel}, nil
}
