package noise

import (
	"math"
	"math/rand/v2"
)

// Persistence is the amplitude falloff between successive octaves.
const Persistence = 0.25

// Synthesizer produces random noise fields from an injected random source.
// It is not safe for concurrent use; give each generator its own.
type Synthesizer struct {
	rng *rand.Rand
}

// New returns a Synthesizer drawing from rng.
func New(rng *rand.Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// NewSeeded returns a Synthesizer with a reproducible PCG source.
func NewSeeded(seed uint64) *Synthesizer {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Float64 exposes the underlying source for callers composing their own masks.
func (s *Synthesizer) Float64() float64 {
	return s.rng.Float64()
}

// WhiteNoise fills a width×height field with uniform values in [0,1).
func (s *Synthesizer) WhiteNoise(width, height int) *Field {
	f := NewField(width, height)
	for i := range f.Data {
		f.Data[i] = s.rng.Float64()
	}
	return f
}

// Perlin is shorthand for PerlinNoise(WhiteNoise(width, height), octaves).
func (s *Synthesizer) Perlin(width, height, octaves int) *Field {
	return PerlinNoise(s.WhiteNoise(width, height), octaves)
}

// SmoothNoise resamples base at a period of 2^octave with bilinear
// interpolation. Sample indices wrap around the edges so the result tiles.
func SmoothNoise(base *Field, octave int) *Field {
	base = orFallback(base)
	if octave < 0 {
		octave = 0
	}
	w, h := base.Width, base.Height
	out := NewField(w, h)

	period := 1 << octave
	freq := 1.0 / float64(period)

	for y := 0; y < h; y++ {
		y0 := (y / period) * period
		y1 := (y0 + period) % h
		vBlend := float64(y-y0) * freq

		for x := 0; x < w; x++ {
			x0 := (x / period) * period
			x1 := (x0 + period) % w
			hBlend := float64(x-x0) * freq

			top := lerp(base.At(x0, y0), base.At(x1, y0), hBlend)
			bottom := lerp(base.At(x0, y1), base.At(x1, y1), hBlend)
			out.Set(x, y, lerp(top, bottom, vBlend))
		}
	}
	return out
}

// PerlinNoise blends octaves of SmoothNoise, coarsest first, with amplitude
// decaying by Persistence. The sum is normalized by the total amplitude so
// values stay in [0,1].
func PerlinNoise(base *Field, octaves int) *Field {
	base = orFallback(base)
	if octaves < 1 {
		octaves = 1
	}

	smooth := make([]*Field, octaves)
	for o := range octaves {
		smooth[o] = SmoothNoise(base, o)
	}

	out := NewField(base.Width, base.Height)
	amplitude := 1.0
	total := 0.0
	for o := octaves - 1; o >= 0; o-- {
		amplitude *= Persistence
		total += amplitude
		for i, v := range smooth[o].Data {
			out.Data[i] += v * amplitude
		}
	}
	for i := range out.Data {
		out.Data[i] = clamp01(out.Data[i] / total)
	}
	return out
}

// AdjustLevels maps values ≤ low to 0, ≥ high to 1 and stretches the band
// in between linearly. When low ≥ high it degenerates to a threshold at low.
func AdjustLevels(f *Field, low, high float64) *Field {
	f = orFallback(f)
	out := NewField(f.Width, f.Height)
	span := high - low
	for i, v := range f.Data {
		switch {
		case v <= low:
			out.Data[i] = 0
		case v >= high:
			out.Data[i] = 1
		case span <= 0:
			out.Data[i] = 1
		default:
			out.Data[i] = (v - low) / span
		}
	}
	return out
}

// Greyscale quantizes values to the 256 levels of an 8-bit grey ramp.
func Greyscale(f *Field) *Field {
	f = orFallback(f)
	out := NewField(f.Width, f.Height)
	for i, v := range f.Data {
		out.Data[i] = math.Round(clamp01(v)*255) / 255
	}
	return out
}

// Rescale affinely maps the observed [min,max] of f onto [lo,hi].
// A constant field maps to lo.
func Rescale(f *Field, lo, hi float64) *Field {
	f = orFallback(f)
	out := NewField(f.Width, f.Height)
	curMin, curMax := f.MinMax()
	span := curMax - curMin
	for i, v := range f.Data {
		if span == 0 {
			out.Data[i] = lo
			continue
		}
		out.Data[i] = lo + (v-curMin)/span*(hi-lo)
	}
	return out
}

// SmoothHeightMap applies one 3×3 box blur pass. Edge cells average only
// their in-bounds neighbours.
func SmoothHeightMap(f *Field) *Field {
	f = orFallback(f)
	w, h := f.Width, f.Height
	out := NewField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			n := 0
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					sum += f.At(nx, ny)
					n++
				}
			}
			out.Set(x, y, sum/float64(n))
		}
	}
	return out
}

// Multiply returns the elementwise product of a and b. Fields of different
// sizes are combined over their common extent; b is treated as 0 elsewhere.
func Multiply(a, b *Field) *Field {
	a, b = orFallback(a), orFallback(b)
	out := NewField(a.Width, a.Height)
	for y := 0; y < a.Height && y < b.Height; y++ {
		for x := 0; x < a.Width && x < b.Width; x++ {
			out.Set(x, y, a.At(x, y)*b.At(x, y))
		}
	}
	return out
}
