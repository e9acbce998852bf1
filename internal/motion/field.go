package motion

import "math"

// Vector is a block displacement in 1/pel pixel units. A block at q in the
// analysed frame matches the reference frame at q + (X, Y)/pel.
type Vector struct {
	X   int
	Y   int
	SAD int
}

// Field is the block motion of one frame against its reference.
type Field struct {
	Index     int
	Reference int
	// Valid is false when the reference lies outside the clip; such fields
	// carry zero vectors.
	Valid     bool
	BlockSize int
	Pel       int
	BlocksX   int
	BlocksY   int
	Vectors   []Vector
}

func zeroField(index, reference, blockSize, pel, width, height int) *Field {
	bx := ceilDiv(width, blockSize)
	by := ceilDiv(height, blockSize)
	return &Field{
		Index:     index,
		Reference: reference,
		BlockSize: blockSize,
		Pel:       pel,
		BlocksX:   bx,
		BlocksY:   by,
		Vectors:   make([]Vector, bx*by),
	}
}

// At returns the vector of block (bx, by), clamped to the grid.
func (f *Field) At(bx, by int) Vector {
	bx = min(max(bx, 0), f.BlocksX-1)
	by = min(max(by, 0), f.BlocksY-1)
	return f.Vectors[by*f.BlocksX+bx]
}

// Flow returns the displacement in luma pixels at (x, y), bilinearly
// interpolated between the surrounding block centres.
func (f *Field) Flow(x, y float64) (dx, dy float64) {
	half := float64(f.BlockSize-1) / 2
	bx0, ax := gridCoord((x-half)/float64(f.BlockSize), f.BlocksX)
	by0, ay := gridCoord((y-half)/float64(f.BlockSize), f.BlocksY)

	v00 := f.At(bx0, by0)
	v10 := f.At(bx0+1, by0)
	v01 := f.At(bx0, by0+1)
	v11 := f.At(bx0+1, by0+1)

	topX := lerp(float64(v00.X), float64(v10.X), ax)
	botX := lerp(float64(v01.X), float64(v11.X), ax)
	topY := lerp(float64(v00.Y), float64(v10.Y), ax)
	botY := lerp(float64(v01.Y), float64(v11.Y), ax)

	pel := float64(f.Pel)
	return lerp(topX, botX, ay) / pel, lerp(topY, botY, ay) / pel
}

func gridCoord(c float64, count int) (int, float64) {
	if c <= 0 {
		return 0, 0
	}
	last := float64(count - 1)
	if c >= last {
		return count - 1, 0
	}
	base := math.Floor(c)
	return int(base), c - base
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
