package motion

import (
	"context"
	"errors"
	"fmt"

	"filldrops/internal/video"
)

// refineRadius bounds the integer search around the upscaled parent vector
// on every pyramid level below the coarsest.
const refineRadius = 2

// Vectors lazily computes motion Fields for each frame of a super clip.
type Vectors struct {
	super  *Super
	params Params
	width  int
	height int
}

// Analyse returns a field source for super using params. Params.Pel and
// Params.BlockSize must match the super clip.
func Analyse(super *Super, params Params) (*Vectors, error) {
	if super == nil {
		return nil, errors.New("motion analyse: nil super clip")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Pel != super.Pel() {
		return nil, fmt.Errorf("motion analyse: pel %d does not match super pel %d", params.Pel, super.Pel())
	}
	if params.BlockSize != super.BlockSize() {
		return nil, fmt.Errorf("motion analyse: block size %d does not match super block size %d", params.BlockSize, super.BlockSize())
	}
	format := super.clip.Format()
	return &Vectors{super: super, params: params, width: format.Width, height: format.Height}, nil
}

func (v *Vectors) Len() int { return v.super.Len() }

func (v *Vectors) Params() Params { return v.params }

// FieldAt computes the motion field of frame n.
func (v *Vectors) FieldAt(ctx context.Context, n int) (*Field, error) {
	if n < 0 || n >= v.Len() {
		return nil, fmt.Errorf("motion analyse: %w: %d not in [0, %d)", video.ErrFrameRange, n, v.Len())
	}
	ref := n - v.params.Delta
	if v.params.Direction == Backward {
		ref = n + v.params.Delta
	}
	bs, pel := v.params.BlockSize, v.params.Pel
	if ref < 0 || ref >= v.Len() {
		return zeroField(n, ref, bs, pel, v.width, v.height), nil
	}

	src, err := v.super.FrameAt(ctx, n)
	if err != nil {
		return nil, err
	}
	dst, err := v.super.FrameAt(ctx, ref)
	if err != nil {
		return nil, err
	}

	var parent *Field
	for k := len(src.Levels) - 1; k >= 0; k-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parent = v.searchLevel(src.Levels[k], dst.Levels[k], parent, k == len(src.Levels)-1)
	}

	field := v.refine(src.Levels[0], dst.Fine, parent)
	field.Index = n
	field.Reference = ref
	field.Valid = true
	return field, nil
}

// searchLevel runs integer block matching on one pyramid level. Vectors are in
// whole pixels of that level.
func (v *Vectors) searchLevel(src, ref video.Plane, parent *Field, coarsest bool) *Field {
	bs := v.params.BlockSize
	field := zeroField(0, 0, bs, 1, src.Width, src.Height)
	radius := refineRadius
	if coarsest {
		radius = v.params.SearchRadius
	}

	for by := 0; by < field.BlocksY; by++ {
		for bx := 0; bx < field.BlocksX; bx++ {
			center := Vector{}
			if parent != nil {
				pv := parent.At(bx/2, by/2)
				center = Vector{X: 2 * pv.X, Y: 2 * pv.Y}
			}
			pred := v.predictor(field, bx, by, center)
			m := matcher{bs: bs, x0: bx * bs, y0: by * bs, pred: pred, lambda: v.penalty(1)}

			best := m.evalInt(src, ref, Vector{})
			if c := m.evalInt(src, ref, center); c.cost < best.cost {
				best = c
			}
			if v.params.TrueMotion {
				if c := m.evalInt(src, ref, pred); c.cost < best.cost {
					best = c
				}
			}
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					c := m.evalInt(src, ref, Vector{X: center.X + dx, Y: center.Y + dy})
					if c.cost < best.cost {
						best = c
					}
				}
			}
			field.Vectors[by*field.BlocksX+bx] = best.vec
		}
	}
	return field
}

// refine converts integer level-0 vectors to 1/pel units and improves them
// with a shrinking-step search on the upsampled reference plane.
func (v *Vectors) refine(src, fine video.Plane, coarse *Field) *Field {
	bs, pel := v.params.BlockSize, v.params.Pel
	field := zeroField(0, 0, bs, pel, src.Width, src.Height)
	for by := 0; by < field.BlocksY; by++ {
		for bx := 0; bx < field.BlocksX; bx++ {
			start := coarse.At(bx, by)
			start = Vector{X: start.X * pel, Y: start.Y * pel}
			pred := v.predictor(field, bx, by, start)
			m := matcher{bs: bs, x0: bx * bs, y0: by * bs, pel: pel, pred: pred, lambda: v.penalty(pel)}

			best := m.evalFine(src, fine, start)
			for step := pel / 2; step >= 1; step /= 2 {
				origin := best.vec
				for dy := -step; dy <= step; dy += step {
					for dx := -step; dx <= step; dx += step {
						if dx == 0 && dy == 0 {
							continue
						}
						c := m.evalFine(src, fine, Vector{X: origin.X + dx, Y: origin.Y + dy})
						if c.cost < best.cost {
							best = c
						}
					}
				}
			}
			field.Vectors[by*field.BlocksX+bx] = best.vec
		}
	}
	return field
}

// predictor returns the median of the left, top and top-right neighbours
// already estimated on this level, or fallback when truemotion is off or no
// neighbour exists.
func (v *Vectors) predictor(field *Field, bx, by int, fallback Vector) Vector {
	if !v.params.TrueMotion {
		return fallback
	}
	var cands []Vector
	if bx > 0 {
		cands = append(cands, field.At(bx-1, by))
	}
	if by > 0 {
		cands = append(cands, field.At(bx, by-1))
		if bx+1 < field.BlocksX {
			cands = append(cands, field.At(bx+1, by-1))
		}
	}
	switch len(cands) {
	case 0:
		return fallback
	case 1:
		return cands[0]
	case 2:
		return Vector{X: (cands[0].X + cands[1].X) / 2, Y: (cands[0].Y + cands[1].Y) / 2}
	default:
		return Vector{
			X: median3(cands[0].X, cands[1].X, cands[2].X),
			Y: median3(cands[0].Y, cands[1].Y, cands[2].Y),
		}
	}
}

// penalty returns the truemotion weight, in 1/256 SAD units per unit of
// vector distance, scaled by block area.
func (v *Vectors) penalty(pel int) int {
	if !v.params.TrueMotion {
		return 0
	}
	bs := v.params.BlockSize
	return v.params.Lambda * bs * bs / 64 / pel
}

type candidate struct {
	vec  Vector
	cost int
}

type matcher struct {
	bs     int
	x0, y0 int
	pel    int
	pred   Vector
	lambda int
}

func (m matcher) cost(vec Vector, sad int) int {
	dist := abs(vec.X-m.pred.X) + abs(vec.Y-m.pred.Y)
	return sad + m.lambda*dist/256
}

func (m matcher) evalInt(src, ref video.Plane, vec Vector) candidate {
	sad := 0
	for j := 0; j < m.bs; j++ {
		for i := 0; i < m.bs; i++ {
			x, y := m.x0+i, m.y0+j
			sad += abs(int(src.At(x, y)) - int(ref.At(x+vec.X, y+vec.Y)))
		}
	}
	vec.SAD = sad
	return candidate{vec: vec, cost: m.cost(vec, sad)}
}

func (m matcher) evalFine(src, fine video.Plane, vec Vector) candidate {
	sad := 0
	for j := 0; j < m.bs; j++ {
		for i := 0; i < m.bs; i++ {
			x, y := m.x0+i, m.y0+j
			sad += abs(int(src.At(x, y)) - int(fine.At(x*m.pel+vec.X, y*m.pel+vec.Y)))
		}
	}
	vec.SAD = sad
	return candidate{vec: vec, cost: m.cost(vec, sad)}
}

func median3(a, b, c int) int {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}
