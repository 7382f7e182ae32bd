// Package maptile renders region heightfields and objects into world map
// tiles and stores them as assets.
package maptile

import (
	"context"
	"fmt"
	"image"
	gomath "math"

	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/pkg/math"
)

// Kind names a tile rendering strategy.
type Kind string

// Available strategies.
const (
	KindShaded Kind = "shaded"
	KindWarp3D Kind = "warp3d"
)

// MinObjectSize is the smallest extent, on any axis, of an object drawn on a tile.
const MinObjectSize = 2.0

// Request is the input of one tile render. The heightfield must not be
// modified while the render runs; the Service passes a copy.
type Request struct {
	Region      scene.RegionInfo
	Heightfield *terrain.HeightField
	Objects     []scene.RenderableObject

	// Size is the output edge length in pixels. Zero renders one pixel per meter.
	Size int
}

func (r *Request) size() (int, int) {
	if r.Size > 0 {
		return r.Size, r.Size
	}
	return r.Heightfield.Width(), r.Heightfield.Height()
}

// View describes an oblique world view camera.
type View struct {
	Position  math.Vec3
	Direction math.Vec3
	FOV       float32 // vertical, radians
	Width     int
	Height    int
}

// TileRenderer draws map tiles for a region.
type TileRenderer interface {
	Kind() Kind
	// RenderTerrain draws terrain and water only.
	RenderTerrain(ctx context.Context, req *Request) (*image.RGBA, error)
	// RenderObjects draws terrain, water and object volumes.
	RenderObjects(ctx context.Context, req *Request) (*image.RGBA, error)
}

// WorldViewer is implemented by strategies that can render an oblique view.
type WorldViewer interface {
	RenderWorldView(ctx context.Context, req *Request, view View) (*image.RGBA, error)
}

// Deps are the collaborators a renderer may use. All are optional.
type Deps struct {
	Textures TextureSource
	Mesher   scene.Mesher
	Cache    *ColorCache
}

// NewRenderer returns the strategy named by kind.
func NewRenderer(kind Kind, deps Deps) (TileRenderer, error) {
	switch kind {
	case KindShaded:
		return NewShadedRenderer(deps), nil
	case KindWarp3D:
		return NewWarp3DRenderer(deps), nil
	default:
		return nil, fmt.Errorf("unknown tile renderer %q", kind)
	}
}

// visible reports whether an object is large enough to draw.
func visible(obj *scene.RenderableObject) bool {
	return obj.Scale.MaxComponent() >= MinObjectSize
}

// finite reports whether an object's placement holds no NaN or infinite
// component. Such objects cannot be transformed and are skipped.
func finite(obj *scene.RenderableObject) bool {
	r := obj.Rotation
	for _, v := range [...]float32{
		obj.Position.X, obj.Position.Y, obj.Position.Z,
		obj.Scale.X, obj.Scale.Y, obj.Scale.Z,
		r.X, r.Y, r.Z, r.W,
	} {
		if gomath.IsNaN(float64(v)) || gomath.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
