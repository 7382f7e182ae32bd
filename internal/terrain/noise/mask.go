package noise

import "math"

// Island mask proportions, relative to the shorter field edge.
const (
	islandCenterJitter = 0.05 // max centre offset per axis
	islandInnerMin     = 0.12 // inner radius lower bound
	islandInnerSpread  = 0.10 // inner radius random spread
	islandOuter        = 0.38 // radius beyond which the mask is 0
)

// Edge blend margins as a fraction of width and height.
const (
	edgeMarginX = 0.13
	edgeMarginY = 0.11
)

// IslandGradientMask builds a radial land mask: 1 inside a randomized inner
// radius around a jittered centre, 0 beyond the outer radius, and a decay of
// 1 - minR/(k*(maxR-r)+minR) with a per-cell random k in between so the
// coastline is irregular.
func (s *Synthesizer) IslandGradientMask(width, height int) *Field {
	out := NewField(width, height)
	w, h := out.Width, out.Height
	edge := float64(min(w, h))

	cx := float64(w)/2 + (s.rng.Float64()*2-1)*islandCenterJitter*edge
	cy := float64(h)/2 + (s.rng.Float64()*2-1)*islandCenterJitter*edge
	minR := (islandInnerMin + s.rng.Float64()*islandInnerSpread) * edge
	maxR := islandOuter * edge

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case r <= minR:
				out.Set(x, y, 1)
			case r >= maxR:
				out.Set(x, y, 0)
			default:
				k := 0.5 + s.rng.Float64()
				out.Set(x, y, clamp01(1-minR/(k*(maxR-r)+minR)))
			}
		}
	}
	return out
}

// EdgeBlendMask pulls values near the border towards edgeLevel. Border cells
// take edgeLevel exactly; the blend reaches ~13% of the width and ~11% of the
// height inward, with the margin jittered per cell so the blend line is not
// straight.
func (s *Synthesizer) EdgeBlendMask(f *Field, edgeLevel float64) *Field {
	f = orFallback(f)
	w, h := f.Width, f.Height
	out := f.Clone()

	baseX := math.Max(1, float64(w)*edgeMarginX)
	baseY := math.Max(1, float64(h)*edgeMarginY)

	for y := 0; y < h; y++ {
		dy := float64(min(y, h-1-y))
		for x := 0; x < w; x++ {
			dx := float64(min(x, w-1-x))

			jitter := 0.85 + 0.3*s.rng.Float64()
			tx := clamp01(dx / (baseX * jitter))
			ty := clamp01(dy / (baseY * jitter))
			t := math.Min(tx, ty)
			if t >= 1 {
				continue
			}
			// Smoothstep keeps the blend from creasing at the margin.
			t = t * t * (3 - 2*t)
			if t == 0 {
				out.Set(x, y, edgeLevel)
				continue
			}
			out.Set(x, y, lerp(edgeLevel, f.At(x, y), t))
		}
	}
	return out
}
