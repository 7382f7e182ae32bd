package render

import (
	"image"
	"image/color"

	"github.com/Faultbox/regiontile/pkg/math"
)

// Vertex is a mesh vertex in object space.
type Vertex struct {
	Position math.Vec3
	UV       math.Vec2
}

// Material describes how a mesh surface is coloured.
type Material struct {
	// Color tints the texture, or is the surface colour when Texture is nil.
	Color color.RGBA
	// Texture is sampled with nearest filtering and repeating UVs.
	Texture image.Image
	// Opacity below 1 blends the surface over what is already drawn.
	Opacity float32
	// Unlit surfaces skip flat shading.
	Unlit bool
}

// FlatMaterial returns an opaque, lit material of colour c.
func FlatMaterial(c color.RGBA) Material {
	return Material{Color: c, Opacity: 1}
}

// TexturedMaterial returns an opaque, lit material sampling tex.
func TexturedMaterial(tex image.Image) Material {
	return Material{Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, Texture: tex, Opacity: 1}
}

func (m *Material) translucent() bool {
	return m.Opacity < 1
}

// sample returns the unshaded surface colour at uv.
func (m *Material) sample(uv math.Vec2) color.RGBA {
	if m.Texture == nil {
		return m.Color
	}
	b := m.Texture.Bounds()
	u := uv.X - floor32(uv.X)
	v := uv.Y - floor32(uv.Y)
	x := b.Min.X + min(int(u*float32(b.Dx())), b.Dx()-1)
	y := b.Min.Y + min(int(v*float32(b.Dy())), b.Dy()-1)
	t := color.RGBAModel.Convert(m.Texture.At(x, y)).(color.RGBA)
	return color.RGBA{
		R: uint8(uint16(t.R) * uint16(m.Color.R) / 255),
		G: uint8(uint16(t.G) * uint16(m.Color.G) / 255),
		B: uint8(uint16(t.B) * uint16(m.Color.B) / 255),
		A: t.A,
	}
}

// Mesh is indexed triangle geometry with a transform and material.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Transform math.Mat4
	Material  Material

	// FaceNormals optionally overrides the geometric normal used for
	// shading, one object-space normal per triangle.
	FaceNormals []math.Vec3
}

// NewMesh returns an empty mesh with an identity transform.
func NewMesh(material Material) *Mesh {
	return &Mesh{Transform: math.Identity(), Material: material}
}

// AddQuad appends two triangles a-b-c and c-b-d.
func (m *Mesh) AddQuad(a, b, c, d Vertex) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, a, b, c, d)
	m.Indices = append(m.Indices, base, base+1, base+2, base+2, base+1, base+3)
}

// Triangles returns the number of triangles.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// UnitCube returns a cube centred on the origin with unit edges. Each face
// has its own vertices so faces shade independently.
func UnitCube(material Material) *Mesh {
	m := NewMesh(material)
	h := float32(0.5)
	faces := [6][4]math.Vec3{
		{{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: -h, Y: h, Z: h}, {X: h, Y: h, Z: h}},     // top
		{{X: -h, Y: h, Z: -h}, {X: h, Y: h, Z: -h}, {X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}}, // bottom
		{{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}}, // south
		{{X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h}},     // north
		{{X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}},     // east
		{{X: -h, Y: h, Z: -h}, {X: -h, Y: -h, Z: -h}, {X: -h, Y: h, Z: h}, {X: -h, Y: -h, Z: h}}, // west
	}
	uvs := [4]math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0}}
	for _, f := range faces {
		m.AddQuad(
			Vertex{Position: f[0], UV: uvs[0]},
			Vertex{Position: f[1], UV: uvs[1]},
			Vertex{Position: f[2], UV: uvs[2]},
			Vertex{Position: f[3], UV: uvs[3]},
		)
	}
	return m
}
