// Package video defines the frame and clip model shared by every FillDrops
// component.
//
// Frames are immutable once constructed: pixel planes are never written after
// NewFrame returns and property maps are copied on write. Clips are finite,
// randomly indexable sequences with a fixed Format; implementations resolve
// frames on demand and never buffer an entire stream.
//
// Key types:
//   - Format: plane geometry (dimensions, chroma subsampling, bit depth)
//   - Plane: a single 8-bit sample plane
//   - Frame: planes plus an attached property map
//   - Clip: the pull-based stream interface
package video
