package maptile

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/render"
)

// WaterColor fills every underwater cell of a shaded tile.
var WaterColor = color.RGBA{R: 29, G: 71, B: 95, A: 255}

const (
	// slopeThreshold is the smallest height step that shades a pixel.
	slopeThreshold = 0.3
	// shadeScale converts a height step in meters into a channel delta.
	shadeScale = 10.0
)

// ShadedRenderer draws a flat relief map straight from the heightfield.
// It keeps no state between calls and uses no randomness.
type ShadedRenderer struct {
	objects objectBuilder
	log     *zap.Logger
}

// NewShadedRenderer returns a shaded 2D renderer. Only the object overlay
// uses deps.
func NewShadedRenderer(deps Deps) *ShadedRenderer {
	log := logger.Named("maptile")
	return &ShadedRenderer{objects: newObjectBuilder(deps, log), log: log}
}

// Kind implements TileRenderer.
func (r *ShadedRenderer) Kind() Kind { return KindShaded }

// RenderTerrain implements TileRenderer. Land is a grey tint of its height,
// water a flat colour, and each land pixel is brightened or darkened by the
// height step from its south-west diagonal neighbour. Row 0 of the image is
// the north edge.
func (r *ShadedRenderer) RenderTerrain(_ context.Context, req *Request) (*image.RGBA, error) {
	hf := req.Heightfield
	if hf == nil {
		return nil, ErrNoHeightfield
	}
	w, h := hf.Width(), hf.Height()
	if w > render.MaxRenderPixels/h {
		return nil, fmt.Errorf("%w: %dx%d", render.ErrRenderTarget, w, h)
	}

	lo, hi := hf.MinMax()
	r.log.Debug("shading terrain",
		zap.String("region", req.Region.Name),
		zap.Float64("min", lo),
		zap.Float64("max", hi))

	water := req.Region.WaterHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := h - 1 - y
		for x := 0; x < w; x++ {
			if v := hf.Get(x, y); v > water {
				img.SetRGBA(x, row, landColor(v))
			} else {
				img.SetRGBA(x, row, WaterColor)
			}
		}
	}

	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			v, n := hf.Get(x, y), hf.Get(x+1, y+1)
			if v <= water || n <= water {
				continue
			}
			delta, ok := shadeDelta(v - n)
			if !ok || delta == 0 {
				continue
			}
			px, py := x+1, h-2-y
			img.SetRGBA(px, py, shift(img.RGBAAt(px, py), delta))
		}
	}

	return resize(img, req), nil
}

// RenderObjects implements TileRenderer by drawing a top-down object
// overlay over the terrain.
func (r *ShadedRenderer) RenderObjects(ctx context.Context, req *Request) (*image.RGBA, error) {
	base, err := r.RenderTerrain(ctx, req)
	if err != nil {
		return nil, err
	}
	overlay, err := r.ObjectOverlay(ctx, req)
	if err != nil {
		return nil, err
	}
	return Composite(base, overlay, nil)[0], nil
}

// ObjectOverlay draws visible objects from above on a transparent image of
// the request size.
func (r *ShadedRenderer) ObjectOverlay(ctx context.Context, req *Request) (*image.RGBA, error) {
	hf := req.Heightfield
	if hf == nil {
		return nil, ErrNoHeightfield
	}
	w, h := req.size()
	target, err := render.NewTarget(w, h)
	if err != nil {
		return nil, err
	}
	target.Clear(color.RGBA{})

	lo, hi := heightRange(hf, req.Region.WaterHeight, req.Objects, true)
	rr := render.NewRenderer(target, render.NewTopDown(0, 0, float32(hf.Width()), float32(hf.Height()), lo, hi))
	defer rr.Reset()
	if added, _ := r.objects.addObjects(ctx, rr, req.Objects); added == 0 {
		return target.Color, nil
	}
	rr.Render()
	return target.Color, nil
}

// landColor maps a height in meters to a green-tinted grey.
func landColor(v float64) color.RGBA {
	if math.IsNaN(v) {
		v = 0
	}
	c := uint8(min(max(v, 0), 255))
	return color.RGBA{
		R: c,
		G: uint8(min(int(c)+32, 255)),
		B: uint8(int(c) * 3 / 4),
		A: 255,
	}
}

// shadeDelta converts a height step into a signed channel delta. Steps below
// slopeThreshold give 0. ok is false when the step is not finite or the
// scaled delta does not fit in an int16, in which case no shading applies.
func shadeDelta(diff float64) (delta int, ok bool) {
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return 0, false
	}
	if math.Abs(diff) < slopeThreshold {
		return 0, true
	}
	scaled := diff * shadeScale
	if scaled > math.MaxInt16 || scaled < math.MinInt16 {
		return 0, false
	}
	return int(scaled), true
}

// shift adds delta to every colour channel, saturating at 0 and 255.
func shift(c color.RGBA, delta int) color.RGBA {
	sat := func(v uint8) uint8 {
		return uint8(min(max(int(v)+delta, 0), 255))
	}
	return color.RGBA{R: sat(c.R), G: sat(c.G), B: sat(c.B), A: c.A}
}

// resize scales img to the requested tile size, if one was given.
func resize(img *image.RGBA, req *Request) *image.RGBA {
	w, h := req.size()
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
