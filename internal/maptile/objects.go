package maptile

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/regiontile/internal/render"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/pkg/math"
)

// TextureObjectSize is the extent above which objects get a textured
// material instead of a flat average colour.
const TextureObjectSize = 48.0

// NeutralGrey is used when an object's texture cannot be resolved.
var NeutralGrey = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Errors that cause an object to be skipped.
var (
	errNoMesher      = errors.New("no mesher for shape")
	errEmptyGeometry = errors.New("mesher returned no geometry")
	errNonFinite     = errors.New("non-finite position, rotation or scale")
)

// objectBuilder turns scene objects into render meshes.
type objectBuilder struct {
	textures TextureSource
	mesher   scene.Mesher
	cache    *ColorCache
	log      *zap.Logger
}

func newObjectBuilder(deps Deps, log *zap.Logger) objectBuilder {
	cache := deps.Cache
	if cache == nil {
		cache = NewColorCache("")
	}
	return objectBuilder{
		textures: deps.Textures,
		mesher:   deps.Mesher,
		cache:    cache,
		log:      log,
	}
}

// addObjects queues a mesh for every drawable object and returns how many
// were added and how many were skipped.
func (b *objectBuilder) addObjects(ctx context.Context, rr *render.Renderer, objects []scene.RenderableObject) (added, skipped int) {
	for i := range objects {
		obj := &objects[i]
		if !visible(obj) {
			continue
		}
		var m *render.Mesh
		err := errNonFinite
		if finite(obj) {
			m, err = b.safeMesh(ctx, obj)
		}
		if err != nil {
			b.log.Warn("skipping object",
				zap.String("object", obj.ID),
				zap.Stringer("shape", obj.Shape),
				zap.Error(err))
			skipped++
			continue
		}
		rr.Add(m)
		added++
	}
	return added, skipped
}

// safeMesh builds one object mesh, converting a panic in collaborator code
// into an error so one bad object cannot abort the tile.
func (b *objectBuilder) safeMesh(ctx context.Context, obj *scene.RenderableObject) (m *render.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("panic while meshing: %v", r)
		}
	}()
	return b.objectMesh(ctx, obj)
}

func (b *objectBuilder) objectMesh(ctx context.Context, obj *scene.RenderableObject) (*render.Mesh, error) {
	mat := b.material(ctx, obj)

	var m *render.Mesh
	switch obj.Shape {
	case scene.ShapeBox:
		m = render.UnitCube(mat)
		if b.mesher != nil {
			data, err := b.mesher.FacetedMesh(*obj)
			if err != nil {
				b.log.Debug("mesher failed, using box", zap.String("object", obj.ID), zap.Error(err))
			} else if mesh, err := meshFromData(data, mat); err == nil {
				m = mesh
			}
		}

	case scene.ShapeSculpt:
		if b.mesher == nil {
			return nil, errNoMesher
		}
		if b.textures == nil {
			return nil, ErrNoDecoder
		}
		sculpt, err := b.textures.Texture(ctx, obj.SculptTextureID)
		if err != nil {
			return nil, fmt.Errorf("sculpt map: %w", err)
		}
		data, err := b.mesher.SculptMesh(*obj, sculpt)
		if err != nil {
			return nil, err
		}
		if m, err = meshFromData(data, mat); err != nil {
			return nil, err
		}

	case scene.ShapeMesh:
		if b.mesher == nil {
			return nil, errNoMesher
		}
		data, err := b.mesher.FacetedMesh(*obj)
		if err != nil {
			return nil, err
		}
		if m, err = meshFromData(data, mat); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown shape %v", obj.Shape)
	}

	m.Transform = math.Compose(obj.Position, obj.Rotation, obj.Scale)
	return m, nil
}

// material picks a flat colour for small objects and a texture for large
// ones. Unresolvable textures give neutral grey.
func (b *objectBuilder) material(ctx context.Context, obj *scene.RenderableObject) render.Material {
	if obj.TextureID == "" || b.textures == nil {
		if obj.TextureID != "" {
			return render.FlatMaterial(NeutralGrey)
		}
		return render.FlatMaterial(opaque(obj.Color))
	}

	if obj.Scale.MaxComponent() >= TextureObjectSize {
		img, err := b.textures.Texture(ctx, obj.TextureID)
		if err != nil {
			b.log.Debug("object texture unavailable", zap.String("object", obj.ID), zap.Error(err))
			return render.FlatMaterial(NeutralGrey)
		}
		if _, err := b.cache.GetOrCompute(obj.TextureID, func() (color.RGBA, error) {
			return AverageColor(img), nil
		}); err != nil {
			b.log.Debug("average colour not cached", zap.String("texture", obj.TextureID), zap.Error(err))
		}
		mat := render.TexturedMaterial(img)
		mat.Color = opaque(obj.Color)
		return mat
	}

	avg, err := b.cache.GetOrCompute(obj.TextureID, func() (color.RGBA, error) {
		img, err := b.textures.Texture(ctx, obj.TextureID)
		if err != nil {
			return color.RGBA{}, err
		}
		return AverageColor(img), nil
	})
	if err != nil {
		b.log.Debug("object texture unavailable", zap.String("object", obj.ID), zap.Error(err))
		return render.FlatMaterial(NeutralGrey)
	}
	return render.FlatMaterial(tint(avg, obj.Color))
}

func meshFromData(data *scene.MeshData, mat render.Material) (*render.Mesh, error) {
	if data == nil || len(data.Positions) == 0 || len(data.Indices) < 3 {
		return nil, errEmptyGeometry
	}
	m := render.NewMesh(mat)
	m.Vertices = make([]render.Vertex, len(data.Positions))
	for i, p := range data.Positions {
		m.Vertices[i].Position = p
		if i < len(data.UVs) {
			m.Vertices[i].UV = data.UVs[i]
		}
	}
	m.Indices = append(m.Indices, data.Indices...)
	return m, nil
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}

// tint multiplies a texture average by a face colour.
func tint(avg, face color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(uint16(avg.R) * uint16(face.R) / 255),
		G: uint8(uint16(avg.G) * uint16(face.G) / 255),
		B: uint8(uint16(avg.B) * uint16(face.B) / 255),
		A: 255,
	}
}
