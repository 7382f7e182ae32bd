// Package generator builds region heightfields from named terrain presets.
package generator

import (
	"unicode/utf8"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/internal/terrain/noise"
)

// Octaves is the number of noise octaves blended for mainland and island terrain.
const Octaves = 8

// FlatOffset is how far flatland sits above the water line.
const FlatOffset = 0.1

// Level band used to sharpen noise before it becomes height.
const (
	levelLow  = 0.2
	levelHigh = 0.8
)

// islandFloor is the lowest relative height of land inside the island mask.
const islandFloor = 0.25

// Aquatic and swamp tuning.
const (
	aquaticFrequency = 1.0 / 48
	aquaticShoal     = 0.5 // highest shoals rise this far above water
	aquaticMinDepth  = 10  // used when min is not below water
	swampFrequency   = 1.0 / 24
	swampRelief      = 1.5
)

// Preset identifies a terrain generation algorithm.
type Preset int

// Known presets.
const (
	Flat Preset = iota
	Mainland
	Island
	Aquatic
	Swamp
	Null
)

var presetNames = [...]string{
	Flat:     "flatland",
	Mainland: "mainland",
	Island:   "island",
	Aquatic:  "aquatic",
	Swamp:    "swamp",
	Null:     "null",
}

// String returns the canonical preset name.
func (p Preset) String() string {
	if p < 0 || int(p) >= len(presetNames) {
		return "unknown"
	}
	return presetNames[p]
}

// Presets lists the canonical preset names.
func Presets() []string {
	out := make([]string, len(presetNames))
	copy(out, presetNames[:])
	return out
}

// ParsePreset maps a preset name to its algorithm by its first letter,
// ignoring case. Empty and unrecognized names select Flat.
func ParsePreset(name string) Preset {
	r, _ := utf8.DecodeRuneInString(cases.Fold().String(name))
	switch r {
	case 'f':
		return Flat
	case 'm', 'g', 'h':
		return Mainland
	case 'i':
		return Island
	case 'a':
		return Aquatic
	case 's':
		return Swamp
	case 'n':
		return Null
	default:
		return Flat
	}
}

// Generator produces heightfields. It is not safe for concurrent use.
type Generator struct {
	seed  uint64
	synth *noise.Synthesizer
	log   *zap.Logger
}

// New returns a generator whose output is reproducible for a given seed.
func New(seed uint64) *Generator {
	return &Generator{
		seed:  seed,
		synth: noise.NewSeeded(seed),
		log:   logger.Named("terrain"),
	}
}

// Generate builds a heightfield of the region's size using the named preset,
// then records the region's land area. min and max bound the generated
// elevation for the noise presets; smoothing is the number of blur passes.
// Generate always returns a valid heightfield: a nil region is treated as
// a default region, and sizes outside [1, terrain.MaxDimension] fall back to
// noise.FallbackSize.
func (g *Generator) Generate(preset string, min, max float64, smoothing int, region *scene.RegionInfo) *terrain.HeightField {
	if region == nil {
		r := scene.DefaultRegion("")
		region = &r
	}
	w, h := region.SizeX, region.SizeY
	if w <= 0 || h <= 0 || w > terrain.MaxDimension || h > terrain.MaxDimension {
		w, h = noise.FallbackSize, noise.FallbackSize
	}
	hf, err := terrain.New(w, h)
	if err != nil {
		// Unreachable with the sizes above.
		panic(err)
	}
	hf.WaterHeight = region.WaterHeight
	water := region.WaterHeight

	p := ParsePreset(preset)
	switch p {
	case Flat:
		hf.Fill(water + FlatOffset)
	case Null:
	case Mainland:
		g.writeField(hf, g.mainland(w, h, min, max, smoothing, water))
	case Island:
		g.writeField(hf, g.island(w, h, min, max, smoothing))
	case Aquatic:
		g.writeField(hf, g.aquatic(w, h, min, smoothing, water))
	case Swamp:
		g.writeField(hf, g.swamp(w, h, smoothing, water))
	}

	region.LandArea = hf.LandArea(water)
	g.log.Info("terrain generated",
		zap.String("preset", p.String()),
		zap.String("requested", preset),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("land_area", region.LandArea))
	return hf
}

// mainland stretches perlin noise into [min,max] and blends the border to the
// water line so neighbouring mainland regions meet without seams.
func (g *Generator) mainland(w, h int, min, max float64, smoothing int, water float64) *noise.Field {
	f := g.synth.Perlin(w, h, octavesFor(w, h))
	f = noise.AdjustLevels(f, levelLow, levelHigh)
	f = noise.Greyscale(f)
	f = smooth(f, smoothing)
	f = noise.Rescale(f, min, max)
	return g.synth.EdgeBlendMask(f, water)
}

func (g *Generator) island(w, h int, min, max float64, smoothing int) *noise.Field {
	f := g.synth.Perlin(w, h, octavesFor(w, h))
	f = noise.AdjustLevels(f, levelLow, levelHigh)
	f = noise.Greyscale(f)
	f = noise.Rescale(f, islandFloor, 1)
	f = noise.Multiply(f, g.synth.IslandGradientMask(w, h))
	f = smooth(f, smoothing)
	return noise.Rescale(f, min, max)
}

// aquatic builds a seabed below the water line with a few shoals breaking
// the surface.
func (g *Generator) aquatic(w, h int, min float64, smoothing int, water float64) *noise.Field {
	p := perlin.NewPerlin(2, 2, 4, int64(g.seed))
	f := noise.NewField(w, h)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := p.Noise2D(float64(x)*aquaticFrequency, float64(y)*aquaticFrequency)
			f.Set(x, y, v)
		}
	}
	f = smooth(f, smoothing)

	floor := min
	if floor >= water {
		floor = water - aquaticMinDepth
	}
	return noise.Rescale(f, floor, water+aquaticShoal)
}

// swamp is low relief wetland hugging the water line.
func (g *Generator) swamp(w, h int, smoothing int, water float64) *noise.Field {
	base := opensimplex.NewNormalized(int64(g.seed))
	detail := opensimplex.NewNormalized(int64(g.seed) + 1)
	f := noise.NewField(w, h)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			fx, fy := float64(x)*swampFrequency, float64(y)*swampFrequency
			f.Set(x, y, 0.75*base.Eval2(fx, fy)+0.25*detail.Eval2(fx*4, fy*4))
		}
	}
	f = smooth(f, smoothing)
	return noise.Rescale(f, water-swampRelief, water+swampRelief)
}

// octavesFor caps the octave count so the coarsest period still spans
// several samples of a w×h field.
func octavesFor(w, h int) int {
	n := Octaves
	for n > 1 && 1<<(n-1) >= min(w, h)/2 {
		n--
	}
	return n
}

func smooth(f *noise.Field, passes int) *noise.Field {
	for range passes {
		f = noise.SmoothHeightMap(f)
	}
	return f
}

// writeField copies f into hf over their common extent.
func (g *Generator) writeField(hf *terrain.HeightField, f *noise.Field) {
	w := min(hf.Width(), f.Width)
	h := min(hf.Height(), f.Height)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hf.Set(x, y, f.At(x, y))
		}
	}
}
