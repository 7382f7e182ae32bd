package render

import (
	gomath "math"

	"github.com/Faultbox/regiontile/pkg/math"
)

// Default lighting: a high sun from the south-east and a strong ambient term.
var (
	DefaultLight   = math.Vec3{X: 0.3, Y: -0.4, Z: 1}.Normalize()
	DefaultAmbient = float32(0.45)
)

// Renderer rasterizes meshes into a Target. Opaque meshes are drawn first in
// submission order, translucent meshes after them, also in submission order.
type Renderer struct {
	target  *Target
	camera  Camera
	light   math.Vec3
	ambient float32
	meshes  []*Mesh

	// covered marks pixels already blended by the current translucent mesh.
	covered []bool
}

// NewRenderer returns a renderer drawing into target through camera.
func NewRenderer(target *Target, camera Camera) *Renderer {
	return &Renderer{
		target:  target,
		camera:  camera,
		light:   DefaultLight,
		ambient: DefaultAmbient,
	}
}

// SetLight sets the direction towards the light and the ambient fraction.
func (r *Renderer) SetLight(dir math.Vec3, ambient float32) {
	r.light = dir.Normalize()
	r.ambient = ambient
}

// Add queues a mesh for the next Render.
func (r *Renderer) Add(m *Mesh) {
	r.meshes = append(r.meshes, m)
}

// Meshes returns the number of queued meshes.
func (r *Renderer) Meshes() int {
	return len(r.meshes)
}

// Render draws all queued meshes and returns the number of triangles that
// reached the rasterizer.
func (r *Renderer) Render() int {
	vp := r.camera.ViewProjection()
	drawn := 0
	for _, m := range r.meshes {
		if !m.Material.translucent() {
			drawn += r.drawMesh(vp, m)
		}
	}
	for _, m := range r.meshes {
		if m.Material.translucent() {
			if r.covered == nil {
				r.covered = make([]bool, r.target.Width*r.target.Height)
			} else {
				clear(r.covered)
			}
			drawn += r.drawMesh(vp, m)
		}
	}
	return drawn
}

// Reset drops all queued meshes and scratch buffers.
func (r *Renderer) Reset() {
	clear(r.meshes)
	r.meshes = r.meshes[:0]
	r.covered = nil
}

// screenVertex is a vertex after projection.
type screenVertex struct {
	x, y, z float32
	invW    float32
	uOverW  float32
	vOverW  float32
}

func (r *Renderer) drawMesh(vp math.Mat4, m *Mesh) int {
	mvp := vp.Mul(m.Transform)
	drawn := 0
	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(max(ia, ib, ic)) >= len(m.Vertices) {
			continue
		}
		va, vb, vc := m.Vertices[ia], m.Vertices[ib], m.Vertices[ic]

		var sv [3]screenVertex
		ok := true
		for k, v := range [3]Vertex{va, vb, vc} {
			sv[k], ok = r.project(mvp, v)
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}

		intensity := float32(1)
		if !m.Material.Unlit {
			if tri := i / 3; tri < len(m.FaceNormals) {
				intensity = r.intensity(m.Transform.TransformDirection(m.FaceNormals[tri]))
			} else {
				intensity = r.shade(m.Transform, va.Position, vb.Position, vc.Position)
			}
		}
		if r.rasterize(sv, &m.Material, intensity) {
			drawn++
		}
	}
	return drawn
}

// project maps an object-space vertex to screen space. Vertices behind the
// camera are rejected.
func (r *Renderer) project(mvp math.Mat4, v Vertex) (screenVertex, bool) {
	c := mvp.MulVec4(math.Point(v.Position))
	if c[3] <= 1e-6 {
		return screenVertex{}, false
	}
	invW := 1 / c[3]
	ndcX, ndcY, ndcZ := c[0]*invW, c[1]*invW, c[2]*invW
	return screenVertex{
		x:      (ndcX + 1) * 0.5 * float32(r.target.Width),
		y:      (1 - ndcY) * 0.5 * float32(r.target.Height),
		z:      ndcZ,
		invW:   invW,
		uOverW: v.UV.X * invW,
		vOverW: v.UV.Y * invW,
	}, true
}

// shade returns the flat-shading intensity of a triangle. Faces are lit from
// either side.
func (r *Renderer) shade(model math.Mat4, a, b, c math.Vec3) float32 {
	wa := model.TransformPoint(a)
	wb := model.TransformPoint(b)
	wc := model.TransformPoint(c)
	return r.intensity(wb.Sub(wa).Cross(wc.Sub(wa)))
}

func (r *Renderer) intensity(normal math.Vec3) float32 {
	d := normal.Normalize().Dot(r.light)
	if d < 0 {
		d = -d
	}
	return r.ambient + (1-r.ambient)*d
}

// edge is twice the signed area of triangle a, b, p; positive when p lies
// to the left of a→b.
func edge(a, b, p math.Vec2) float32 {
	return b.Sub(a).Cross(p.Sub(a))
}

func (v screenVertex) xy() math.Vec2 {
	return math.Vec2{X: v.x, Y: v.y}
}

// rasterize fills one triangle and reports whether any pixel was touched.
func (r *Renderer) rasterize(v [3]screenVertex, mat *Material, intensity float32) bool {
	p0, p1, p2 := v[0].xy(), v[1].xy(), v[2].xy()
	area := edge(p0, p1, p2)
	if area > -1e-8 && area < 1e-8 {
		return false
	}

	w, h := r.target.Width, r.target.Height
	minX := max(0, int(floor32(min(v[0].x, v[1].x, v[2].x))))
	maxX := min(w-1, int(floor32(max(v[0].x, v[1].x, v[2].x))))
	minY := max(0, int(floor32(min(v[0].y, v[1].y, v[2].y))))
	maxY := min(h-1, int(floor32(max(v[0].y, v[1].y, v[2].y))))
	if minX > maxX || minY > maxY {
		return false
	}

	translucent := mat.translucent()
	pix := r.target.Color.Pix
	touched := false

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			centre := math.Vec2{X: float32(px) + 0.5, Y: float32(py) + 0.5}
			b0 := edge(p1, p2, centre) / area
			b1 := edge(p2, p0, centre) / area
			b2 := edge(p0, p1, centre) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*v[0].z + b1*v[1].z + b2*v[2].z
			if z < -1 || z > 1 {
				continue
			}
			idx := py*w + px
			if z >= r.target.Depth[idx] {
				continue
			}
			if translucent && r.covered[idx] {
				continue
			}

			invW := b0*v[0].invW + b1*v[1].invW + b2*v[2].invW
			uv := math.Vec2{
				X: (b0*v[0].uOverW + b1*v[1].uOverW + b2*v[2].uOverW) / invW,
				Y: (b0*v[0].vOverW + b1*v[1].vOverW + b2*v[2].vOverW) / invW,
			}
			c := mat.sample(uv)
			o := idx * 4

			if translucent {
				alpha := mat.Opacity * float32(c.A) / 255
				pix[o] = blend(pix[o], lit(c.R, intensity), alpha)
				pix[o+1] = blend(pix[o+1], lit(c.G, intensity), alpha)
				pix[o+2] = blend(pix[o+2], lit(c.B, intensity), alpha)
				r.covered[idx] = true
			} else {
				pix[o] = lit(c.R, intensity)
				pix[o+1] = lit(c.G, intensity)
				pix[o+2] = lit(c.B, intensity)
				pix[o+3] = 255
				r.target.Depth[idx] = z
			}
			touched = true
		}
	}
	return touched
}

func lit(c uint8, intensity float32) uint8 {
	v := float32(c) * intensity
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func blend(dst, src uint8, alpha float32) uint8 {
	return uint8(float32(src)*alpha + float32(dst)*(1-alpha) + 0.5)
}

func floor32(v float32) float32 {
	return float32(gomath.Floor(float64(v)))
}
