// Package noise synthesizes normalized 2D noise fields for terrain generation.
//
// Every operation returns a new Field and leaves its inputs untouched, so
// pipelines can be composed freely.
package noise

import "math"

// FallbackSize is used for both axes when a caller asks for a degenerate field.
const FallbackSize = 256

// Field is a row-major 2D grid of float values, usually in [0,1].
type Field struct {
	Width  int
	Height int
	Data   []float64
}

// NewField allocates a zeroed field. Sizes below 2 on either axis fall back
// to FallbackSize×FallbackSize.
func NewField(width, height int) *Field {
	width, height = sanitizeSize(width, height)
	return &Field{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

func sanitizeSize(width, height int) (int, int) {
	if width < 2 || height < 2 {
		return FallbackSize, FallbackSize
	}
	return width, height
}

// At returns the value at (x, y).
func (f *Field) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores v at (x, y).
func (f *Field) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{Width: f.Width, Height: f.Height, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

// MinMax returns the observed range of the field.
func (f *Field) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Mean returns the average value of the field.
func (f *Field) Mean() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range f.Data {
		sum += v
	}
	return sum / float64(len(f.Data))
}

// usable reports whether f has data consistent with its dimensions.
func (f *Field) usable() bool {
	return f != nil && f.Width >= 2 && f.Height >= 2 && len(f.Data) == f.Width*f.Height
}

// orFallback returns f, or a zeroed fallback-sized field when f is degenerate.
func orFallback(f *Field) *Field {
	if f.usable() {
		return f
	}
	return NewField(FallbackSize, FallbackSize)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + t*b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
