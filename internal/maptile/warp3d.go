package maptile

import (
	"context"
	"errors"
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/render"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/pkg/math"
)

// NormalMapReduction scales heights before terrain normals are estimated,
// softening the faceting of steep slopes.
const NormalMapReduction = 0.5

// Water plane appearance.
const (
	mapWaterOpacity       = 0.6
	worldViewWaterOpacity = 0.85
	worldViewWaterOffset  = 0.2 // meters above the water height
)

// Scene background colours.
var (
	mapBackground = color.RGBA{R: 29, G: 71, B: 95, A: 255}
	skyBackground = color.RGBA{R: 122, G: 160, B: 208, A: 255}
)

// ErrNoHeightfield is returned for requests without terrain.
var ErrNoHeightfield = errors.New("maptile: request has no heightfield")

// Warp3DRenderer builds a 3D scene of the region and rasterizes it at twice
// the requested resolution before box-filtering it down.
type Warp3DRenderer struct {
	textures TextureSource
	cache    *ColorCache
	objects  objectBuilder
	log      *zap.Logger
}

// NewWarp3DRenderer returns a projected 3D renderer.
func NewWarp3DRenderer(deps Deps) *Warp3DRenderer {
	log := logger.Named("maptile")
	objects := newObjectBuilder(deps, log)
	return &Warp3DRenderer{
		textures: deps.Textures,
		cache:    objects.cache,
		objects:  objects,
		log:      log,
	}
}

// Kind implements TileRenderer.
func (r *Warp3DRenderer) Kind() Kind { return KindWarp3D }

// RenderTerrain implements TileRenderer.
func (r *Warp3DRenderer) RenderTerrain(ctx context.Context, req *Request) (*image.RGBA, error) {
	return r.renderMap(ctx, req, false)
}

// RenderObjects implements TileRenderer.
func (r *Warp3DRenderer) RenderObjects(ctx context.Context, req *Request) (*image.RGBA, error) {
	return r.renderMap(ctx, req, true)
}

func (r *Warp3DRenderer) renderMap(ctx context.Context, req *Request, withObjects bool) (*image.RGBA, error) {
	hf := req.Heightfield
	if hf == nil {
		return nil, ErrNoHeightfield
	}
	w, h := req.size()
	target, err := render.NewTarget(2*w, 2*h)
	if err != nil {
		return nil, err
	}
	target.Clear(mapBackground)

	lo, hi := heightRange(hf, req.Region.WaterHeight, req.Objects, withObjects)
	cam := render.NewTopDown(0, 0, float32(hf.Width()), float32(hf.Height()), lo, hi)
	rr := render.NewRenderer(target, cam)
	defer rr.Reset()

	r.addTerrain(ctx, rr, req, mapWaterOpacity, 0)
	if withObjects {
		added, skipped := r.objects.addObjects(ctx, rr, req.Objects)
		r.log.Debug("objects queued", zap.Int("added", added), zap.Int("skipped", skipped))
	}
	tris := rr.Render()
	r.log.Debug("map tile rasterized",
		zap.String("region", req.Region.Name),
		zap.Int("meshes", rr.Meshes()),
		zap.Int("triangles", tris))
	return render.Downsample2x(target.Color), nil
}

// RenderWorldView implements WorldViewer. Water is raised slightly above the
// terrain plane and drawn more opaque than on map tiles.
func (r *Warp3DRenderer) RenderWorldView(ctx context.Context, req *Request, view View) (*image.RGBA, error) {
	if req.Heightfield == nil {
		return nil, ErrNoHeightfield
	}
	if view.FOV <= 0 {
		view.FOV = 1
	}
	target, err := render.NewTarget(2*view.Width, 2*view.Height)
	if err != nil {
		return nil, err
	}
	target.Clear(skyBackground)

	aspect := float32(view.Width) / float32(view.Height)
	cam := render.NewPerspective(view.Position, view.Direction, view.FOV, aspect, 0.5, 2048)
	rr := render.NewRenderer(target, cam)
	defer rr.Reset()

	r.addTerrain(ctx, rr, req, worldViewWaterOpacity, worldViewWaterOffset)
	r.objects.addObjects(ctx, rr, req.Objects)
	rr.Render()
	return render.Downsample2x(target.Color), nil
}

// addTerrain queues the splatted terrain mesh and the water plane.
func (r *Warp3DRenderer) addTerrain(ctx context.Context, rr *render.Renderer, req *Request, waterOpacity, waterOffset float32) {
	bands := r.loadBands(ctx, &req.Region)
	splat := splatTexture(req.Heightfield, &req.Region, bands)
	rr.Add(terrainMesh(req.Heightfield, splat))

	water := render.Material{Color: mapBackground, Opacity: waterOpacity, Unlit: true}
	rr.Add(waterPlane(req.Heightfield, float32(req.Region.WaterHeight)+waterOffset, water))
}

// terrainMesh has one vertex per sample, stretched so the mesh covers the
// whole region, and two triangles per grid quad shaded with the estimated
// surface normal.
func terrainMesh(hf *terrain.HeightField, splat image.Image) *render.Mesh {
	w, h := hf.Width(), hf.Height()
	m := render.NewMesh(render.TexturedMaterial(splat))
	if w < 2 || h < 2 {
		return m
	}
	sx := float32(w) / float32(w-1)
	sy := float32(h) / float32(h-1)

	m.Vertices = make([]render.Vertex, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Vertices = append(m.Vertices, render.Vertex{
				Position: math.Vec3{X: float32(x) * sx, Y: float32(y) * sy, Z: float32(hf.Get(x, y))},
				UV:       math.Vec2{X: float32(x) / float32(w-1), Y: 1 - float32(y)/float32(h-1)},
			})
		}
	}

	m.Indices = make([]uint32, 0, (w-1)*(h-1)*6)
	m.FaceNormals = make([]math.Vec3, 0, (w-1)*(h-1)*2)
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			i := uint32(y*w + x)
			m.Indices = append(m.Indices,
				i, i+1, i+uint32(w),
				i+uint32(w), i+1, i+uint32(w)+1,
			)
			n := hf.SurfaceNormal(x, y, NormalMapReduction)
			fn := math.Vec3{X: float32(n[0]), Y: float32(n[1]), Z: float32(n[2])}
			m.FaceNormals = append(m.FaceNormals, fn, fn)
		}
	}
	return m
}

// waterPlane is a single quad over the region at height z.
func waterPlane(hf *terrain.HeightField, z float32, mat render.Material) *render.Mesh {
	w, h := float32(hf.Width()), float32(hf.Height())
	m := render.NewMesh(mat)
	m.AddQuad(
		render.Vertex{Position: math.Vec3{X: 0, Y: 0, Z: z}},
		render.Vertex{Position: math.Vec3{X: w, Y: 0, Z: z}},
		render.Vertex{Position: math.Vec3{X: 0, Y: h, Z: z}},
		render.Vertex{Position: math.Vec3{X: w, Y: h, Z: z}},
	)
	return m
}

// heightRange bounds everything the top-down camera must keep in its clip
// volume. Only objects that will actually be drawn widen the range.
func heightRange(hf *terrain.HeightField, water float64, objects []scene.RenderableObject, withObjects bool) (float32, float32) {
	lo, hi := hf.MinMax()
	lo = min(lo, water)
	hi = max(hi, water+worldViewWaterOffset)
	if withObjects {
		for i := range objects {
			obj := &objects[i]
			if !visible(obj) || !finite(obj) {
				continue
			}
			extent := obj.Scale.Length()
			hi = max(hi, float64(obj.Position.Z+extent))
			lo = min(lo, float64(obj.Position.Z-extent))
		}
	}
	return float32(lo - 1), float32(hi + 1)
}
