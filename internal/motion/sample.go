package motion

import (
	"math"

	"filldrops/internal/video"
)

// bilinear samples p at fractional coordinates, clamping at the borders.
func bilinear(p video.Plane, fx, fy float64) float64 {
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	ax := fx - x0
	ay := fy - y0
	ix, iy := int(x0), int(y0)

	tl := float64(p.At(ix, iy))
	tr := float64(p.At(ix+1, iy))
	bl := float64(p.At(ix, iy+1))
	br := float64(p.At(ix+1, iy+1))

	top := tl + (tr-tl)*ax
	bottom := bl + (br-bl)*ax
	return top + (bottom-top)*ay
}

func toSample(v float64) byte {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

func downsample(p video.Plane) video.Plane {
	w := max(p.Width/2, 1)
	h := max(p.Height/2, 1)
	out := video.NewPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := int(p.At(2*x, 2*y)) + int(p.At(2*x+1, 2*y)) +
				int(p.At(2*x, 2*y+1)) + int(p.At(2*x+1, 2*y+1))
			out.Set(x, y, byte((sum+2)/4))
		}
	}
	return out
}

// upsample interpolates p by pel so sample (X, Y) lies at (X/pel, Y/pel).
func upsample(p video.Plane, pel int) video.Plane {
	if pel == 1 {
		return p
	}
	out := video.NewPlane(p.Width*pel, p.Height*pel)
	scale := 1 / float64(pel)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, toSample(bilinear(p, float64(x)*scale, float64(y)*scale)))
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
