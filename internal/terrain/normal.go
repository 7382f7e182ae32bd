package terrain

import "math"

// Patches returns the number of taint patches along X and Y.
func (h *HeightField) Patches() (int, int) {
	return h.patchesX, h.patchesY
}

// SurfaceNormal estimates the unit surface normal at cell (x, y) from the
// edges towards (x+1, y) and (x, y+1). Heights are multiplied by zScale
// before the cross product; a zScale below 1 flattens the result.
func (h *HeightField) SurfaceNormal(x, y int, zScale float64) [3]float64 {
	z0 := h.Get(x, y) * zScale
	v0 := [3]float64{1, 0, h.Get(x+1, y)*zScale - z0}
	v1 := [3]float64{0, 1, h.Get(x, y+1)*zScale - z0}
	n := [3]float64{
		v0[1]*v1[2] - v0[2]*v1[1],
		v0[2]*v1[0] - v0[0]*v1[2],
		v0[0]*v1[1] - v0[1]*v1[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l < 1e-9 {
		return [3]float64{0, 0, 1}
	}
	return [3]float64{n[0] / l, n[1] / l, n[2] / l}
}

// NormalizedGroundHeight fits a plane through (x0,y0), (x0+1,y0) and
// (x0,y0+1) and returns its height at the fractional position (x, y).
// This avoids the stairstep of sampling integer cells directly.
func (h *HeightField) NormalizedGroundHeight(x, y float64) float64 {
	if math.IsNaN(x) || x < 0 {
		x = 0
	}
	if math.IsNaN(y) || y < 0 {
		y = 0
	}
	if x > float64(h.width-1) {
		x = float64(h.width - 1)
	}
	if y > float64(h.height-1) {
		y = float64(h.height - 1)
	}

	xi, yi := int(x), int(y)
	p0 := h.Get(xi, yi)
	// The normal of a plane with unit X/Y edges always has z == 1 before
	// normalization, so the plane equation never divides by zero.
	n := h.SurfaceNormal(xi, yi, 1)

	xdiff := x - float64(xi)
	ydiff := y - float64(yi)
	return (n[0]*xdiff+n[1]*ydiff)/(-n[2]) + p0
}

// NormalizedLandHeight is NormalizedGroundHeight relative to WaterHeight.
// Negative results are underwater.
func (h *HeightField) NormalizedLandHeight(x, y float64) float64 {
	return h.NormalizedGroundHeight(x, y) - h.WaterHeight
}
