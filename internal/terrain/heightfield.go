// Package terrain provides the region heightfield: fixed-point elevation
// samples with per-patch taint tracking.
package terrain

import (
	"errors"
	"fmt"
	"math"
)

// PatchSize is the edge length, in samples, of a taint-tracking patch.
const PatchSize = 16

// MaxDimension is the largest supported heightfield edge, in samples.
const MaxDimension = 65536

// CompressionFactor converts meters to the stored fixed-point representation.
const CompressionFactor = 100.0

// Representable elevation range after decompression.
const (
	MaxHeight = float64(math.MaxInt16) / CompressionFactor
	MinHeight = float64(math.MinInt16) / CompressionFactor
)

// Heightfield errors.
var (
	ErrInvalidDimensions = errors.New("invalid heightfield dimensions")
	ErrSampleCount       = errors.New("sample count does not match dimensions")
)

// Patch identifies a PatchSize×PatchSize block of samples.
type Patch struct {
	X, Y int
}

// HeightField is a width×height grid of elevation samples, one per meter.
// It is owned by a single region; readers that outlive a terraform pass
// should work on Copy().
type HeightField struct {
	width    int
	height   int
	patchesX int
	patchesY int

	samples []int16
	tainted []bool

	// WaterHeight is the region water level used by NormalizedLandHeight.
	WaterHeight float64
}

// New creates a zeroed heightfield. Each edge must be in [1, MaxDimension].
func New(width, height int) (*HeightField, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	return withSamples(width, height, make([]int16, width*height)), nil
}

func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// withSamples wraps samples, which must hold width*height values.
func withSamples(width, height int, samples []int16) *HeightField {
	px := (width + PatchSize - 1) / PatchSize
	py := (height + PatchSize - 1) / PatchSize
	return &HeightField{
		width:    width,
		height:   height,
		patchesX: px,
		patchesY: py,
		samples:  samples,
		tainted:  make([]bool, px*py),
	}
}

// FromSamples creates a heightfield from a persisted row-major sample array.
// The samples are copied.
func FromSamples(width, height int, samples []int16) (*HeightField, error) {
	hf, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleCount, len(samples), width*height)
	}
	copy(hf.samples, samples)
	return hf, nil
}

// Width returns the number of samples along X.
func (h *HeightField) Width() int { return h.width }

// Height returns the number of samples along Y.
func (h *HeightField) Height() int { return h.height }

// Samples returns the raw fixed-point samples. The slice aliases internal
// storage and must not be modified.
func (h *HeightField) Samples() []int16 { return h.samples }

// clampCoord maps x,y to the nearest valid cell.
func (h *HeightField) clampCoord(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= h.width {
		x = h.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h.height {
		y = h.height - 1
	}
	return x, y
}

// Get returns the elevation at (x, y) in meters.
// Out-of-range coordinates clamp to the nearest edge cell.
func (h *HeightField) Get(x, y int) float64 {
	x, y = h.clampCoord(x, y)
	return float64(h.samples[y*h.width+x]) / CompressionFactor
}

// Set stores an elevation at (x, y). Non-finite values are sanitized and the
// result is clamped to the fixed-point range. The owning patch is tainted only
// when the stored value changes. Out-of-range coordinates are ignored.
func (h *HeightField) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= h.width || y >= h.height {
		return
	}
	c := compress(v)
	idx := y*h.width + x
	if h.samples[idx] == c {
		return
	}
	h.samples[idx] = c
	h.tainted[(y/PatchSize)*h.patchesX+x/PatchSize] = true
}

// compress converts meters into the clamped fixed-point representation.
func compress(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxInt16
	case math.IsInf(v, -1):
		return math.MinInt16
	}
	scaled := math.Round(v * CompressionFactor)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}

// Fill sets every sample to v.
func (h *HeightField) Fill(v float64) {
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			h.Set(x, y, v)
		}
	}
}

// IsTainted reports whether the patch owning (x, y) has unread mutations.
// Reading clears the flag.
func (h *HeightField) IsTainted(x, y int) bool {
	x, y = h.clampCoord(x, y)
	idx := (y/PatchSize)*h.patchesX + x/PatchSize
	t := h.tainted[idx]
	h.tainted[idx] = false
	return t
}

// DrainTainted returns every tainted patch and clears all flags.
func (h *HeightField) DrainTainted() []Patch {
	var patches []Patch
	for i, t := range h.tainted {
		if !t {
			continue
		}
		patches = append(patches, Patch{X: i % h.patchesX, Y: i / h.patchesX})
		h.tainted[i] = false
	}
	return patches
}

// Copy returns a deep clone of the samples and taint grid.
func (h *HeightField) Copy() *HeightField {
	c := *h
	c.samples = make([]int16, len(h.samples))
	copy(c.samples, h.samples)
	c.tainted = make([]bool, len(h.tainted))
	copy(c.tainted, h.tainted)
	return &c
}

// MinMax returns the lowest and highest elevation in the field.
func (h *HeightField) MinMax() (lo, hi float64) {
	minS, maxS := int16(math.MaxInt16), int16(math.MinInt16)
	for _, s := range h.samples {
		if s < minS {
			minS = s
		}
		if s > maxS {
			maxS = s
		}
	}
	return float64(minS) / CompressionFactor, float64(maxS) / CompressionFactor
}

// LandArea counts cells, in square meters, whose elevation is above waterHeight.
func (h *HeightField) LandArea(waterHeight float64) int {
	area := 0
	for _, s := range h.samples {
		if float64(s)/CompressionFactor > waterHeight {
			area++
		}
	}
	return area
}
