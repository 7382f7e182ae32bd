// Package render is a small software rasterizer for map tiles: a depth
// buffered triangle pipeline with flat shading, textured and translucent
// materials, and box-filter downsampling.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// MaxRenderPixels bounds the size of a render target.
const MaxRenderPixels = 4096 * 4096

// ErrRenderTarget is returned when a render surface cannot be allocated.
var ErrRenderTarget = errors.New("render: cannot allocate render target")

// Target is a colour buffer with a matching depth buffer.
type Target struct {
	Width  int
	Height int
	Color  *image.RGBA
	Depth  []float32
}

// NewTarget allocates a width×height target.
func NewTarget(width, height int) (*Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrRenderTarget, width, height)
	}
	if width > MaxRenderPixels/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrRenderTarget, width, height, MaxRenderPixels)
	}
	t := &Target{
		Width:  width,
		Height: height,
		Color:  image.NewRGBA(image.Rect(0, 0, width, height)),
		Depth:  make([]float32, width*height),
	}
	t.Clear(color.RGBA{A: 255})
	return t, nil
}

// Clear fills the colour buffer with c and resets depth to the far plane.
func (t *Target) Clear(c color.RGBA) {
	pix := t.Color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	inf := float32(math.Inf(1))
	for i := range t.Depth {
		t.Depth[i] = inf
	}
}

// Downsample2x box-filters src to half its size. Odd trailing rows and
// columns are dropped.
func Downsample2x(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx()/2, b.Dy()/2
	if w == 0 || h == 0 {
		return image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]int
			for dy := 0; dy < 2; dy++ {
				off := src.PixOffset(b.Min.X+2*x, b.Min.Y+2*y+dy)
				for i := 0; i < 8; i++ {
					sum[i%4] += int(src.Pix[off+i])
				}
			}
			o := dst.PixOffset(x, y)
			for i := 0; i < 4; i++ {
				dst.Pix[o+i] = uint8((sum[i] + 2) / 4)
			}
		}
	}
	return dst
}
