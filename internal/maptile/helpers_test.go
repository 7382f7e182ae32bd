package maptile

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/pkg/math"
)

func flatField(t *testing.T, w, h int, v float64) *terrain.HeightField {
	t.Helper()
	hf, err := terrain.New(w, h)
	if err != nil {
		t.Fatalf("terrain.New: %v", err)
	}
	hf.Fill(v)
	hf.WaterHeight = 20
	return hf
}

func testRegion(size int) scene.RegionInfo {
	r := scene.DefaultRegion("test")
	r.SizeX, r.SizeY = size, size
	return r
}

func box(id string, x, y, z, size float32, c color.RGBA) scene.RenderableObject {
	return scene.RenderableObject{
		ID:       id,
		Position: math.Vec3{X: x, Y: y, Z: z},
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: size, Y: size, Z: size},
		Shape:    scene.ShapeBox,
		Color:    c,
	}
}

// cubeData is a closed unit cube.
func cubeData() *scene.MeshData {
	d := &scene.MeshData{}
	for _, z := range []float32{-0.5, 0.5} {
		for _, y := range []float32{-0.5, 0.5} {
			for _, x := range []float32{-0.5, 0.5} {
				d.Positions = append(d.Positions, math.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	d.Indices = []uint32{
		0, 2, 1, 1, 2, 3, // bottom
		4, 5, 6, 5, 7, 6, // top
		0, 1, 4, 1, 5, 4, // south
		2, 6, 3, 3, 6, 7, // north
		0, 4, 2, 2, 4, 6, // west
		1, 3, 5, 3, 7, 5, // east
	}
	return d
}

// stubMesher returns a cube for every object and panics for ids starting
// with "panic".
type stubMesher struct{}

func (stubMesher) FacetedMesh(obj scene.RenderableObject) (*scene.MeshData, error) {
	if len(obj.ID) >= 5 && obj.ID[:5] == "panic" {
		panic("mesher exploded")
	}
	return cubeData(), nil
}

func (stubMesher) SculptMesh(scene.RenderableObject, image.Image) (*scene.MeshData, error) {
	return cubeData(), nil
}

// mapTextures serves images by id.
type mapTextures map[string]image.Image

func (m mapTextures) Texture(_ context.Context, id string) (image.Image, error) {
	img, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("texture %s not found", id)
	}
	return img, nil
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
