package scene

import (
	"fmt"
	"image/color"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/pkg/math"
)

// StaticFile is the YAML description of a region used by the CLI.
type StaticFile struct {
	Region  RegionSpec   `yaml:"region"`
	Terrain TerrainSpec  `yaml:"terrain"`
	Objects []ObjectSpec `yaml:"objects"`
	Parcels []ParcelSpec `yaml:"parcels"`
}

// RegionSpec mirrors RegionInfo in YAML form.
type RegionSpec struct {
	ID              string    `yaml:"id"`
	Name            string    `yaml:"name"`
	SizeX           int       `yaml:"size_x"`
	SizeY           int       `yaml:"size_y"`
	WaterHeight     *float64  `yaml:"water_height"`
	TerrainTextures []string  `yaml:"terrain_textures"`
	ElevationStart  []float64 `yaml:"elevation_start"` // SW, NW, SE, NE
	ElevationRange  []float64 `yaml:"elevation_range"` // SW, NW, SE, NE
}

// TerrainSpec says where the region heightfield comes from: an existing
// file, or a generator preset.
type TerrainSpec struct {
	File      string  `yaml:"file"`
	Preset    string  `yaml:"preset"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Smoothing int     `yaml:"smoothing"`
	Seed      uint64  `yaml:"seed"`
}

// ObjectSpec describes one renderable object. Rotation is Euler degrees.
type ObjectSpec struct {
	ID       string     `yaml:"id"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
	Shape    string     `yaml:"shape"`
	Color    string     `yaml:"color"`
	Texture  string     `yaml:"texture"`
	Sculpt   string     `yaml:"sculpt"`
}

// ParcelSpec describes a rectangular parcel in meters: [x0, y0, x1, y1).
type ParcelSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Rect    [4]int `yaml:"rect"`
	ForSale bool   `yaml:"for_sale"`
	Auction bool   `yaml:"auction"`
}

// Static is an in-memory Scene built from a StaticFile.
type Static struct {
	region  RegionInfo
	field   *terrain.HeightField
	objects []RenderableObject
	parcels []Parcel

	// Terrain is kept so callers can load or generate the heightfield.
	Terrain TerrainSpec
}

// NewStatic builds a scene from already-constructed parts.
func NewStatic(region RegionInfo, field *terrain.HeightField, objects []RenderableObject, parcels []Parcel) *Static {
	return &Static{region: region, field: field, objects: objects, parcels: parcels}
}

// LoadStatic reads a YAML scene description. The heightfield is not loaded;
// call SetHeightfield once it is available.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file StaticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	return file.Build()
}

// Build converts the YAML description into a Static scene.
func (f *StaticFile) Build() (*Static, error) {
	region, err := f.Region.build()
	if err != nil {
		return nil, err
	}

	s := &Static{region: region, Terrain: f.Terrain}
	for i, o := range f.Objects {
		obj, err := o.build()
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, o.ID, err)
		}
		s.objects = append(s.objects, obj)
	}
	for _, p := range f.Parcels {
		s.parcels = append(s.parcels, p.build(region.SizeX, region.SizeY))
	}
	return s, nil
}

func (r RegionSpec) build() (RegionInfo, error) {
	info := DefaultRegion(r.Name)
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return RegionInfo{}, fmt.Errorf("region id: %w", err)
		}
		info.ID = id
	}
	if r.SizeX > 0 {
		info.SizeX = r.SizeX
	}
	if r.SizeY > 0 {
		info.SizeY = r.SizeY
	}
	if r.WaterHeight != nil {
		info.WaterHeight = *r.WaterHeight
	}
	for i := 0; i < len(r.TerrainTextures) && i < 4; i++ {
		info.TerrainTextures[i] = r.TerrainTextures[i]
	}
	if len(r.ElevationStart) == 4 {
		copy(info.ElevationStart[:], r.ElevationStart)
	}
	if len(r.ElevationRange) == 4 {
		copy(info.ElevationRange[:], r.ElevationRange)
	}
	return info, nil
}

func (o ObjectSpec) build() (RenderableObject, error) {
	c := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	if o.Color != "" {
		parsed, err := ParseHexColor(o.Color)
		if err != nil {
			return RenderableObject{}, err
		}
		c = parsed
	}

	shape := ShapeBox
	switch strings.ToLower(o.Shape) {
	case "", "box", "prim":
	case "sculpt":
		shape = ShapeSculpt
	case "mesh":
		shape = ShapeMesh
	default:
		return RenderableObject{}, fmt.Errorf("unknown shape %q", o.Shape)
	}

	const deg = gomath.Pi / 180
	return RenderableObject{
		ID:              o.ID,
		Position:        math.Vec3{X: o.Position[0], Y: o.Position[1], Z: o.Position[2]},
		Rotation:        math.QuatFromEuler(o.Rotation[0]*deg, o.Rotation[1]*deg, o.Rotation[2]*deg),
		Scale:           math.Vec3{X: o.Scale[0], Y: o.Scale[1], Z: o.Scale[2]},
		Shape:           shape,
		Color:           c,
		TextureID:       o.Texture,
		SculptTextureID: o.Sculpt,
	}, nil
}

func (p ParcelSpec) build(sizeX, sizeY int) Parcel {
	cols, rows := sizeX/ParcelGrid, sizeY/ParcelGrid
	bitmap := make([]bool, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x, y := col*ParcelGrid, row*ParcelGrid
			if x >= p.Rect[0] && x < p.Rect[2] && y >= p.Rect[1] && y < p.Rect[3] {
				bitmap[row*cols+col] = true
			}
		}
	}
	return Parcel{ID: p.ID, Name: p.Name, Bitmap: bitmap, ForSale: p.ForSale, Auction: p.Auction}
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Region implements Scene.
func (s *Static) Region() RegionInfo { return s.region }

// Heightfield implements Scene.
func (s *Static) Heightfield() *terrain.HeightField { return s.field }

// Entities implements Scene.
func (s *Static) Entities() []RenderableObject { return s.objects }

// Parcels implements Scene.
func (s *Static) Parcels() []Parcel { return s.parcels }

// SetHeightfield attaches the region heightfield.
func (s *Static) SetHeightfield(hf *terrain.HeightField) {
	hf.WaterHeight = s.region.WaterHeight
	s.field = hf
}

// SetLandArea records the land area computed by the terrain generator.
func (s *Static) SetLandArea(area int) {
	s.region.LandArea = area
}

// RegionPtr exposes the region settings for the generator, which updates LandArea.
func (s *Static) RegionPtr() *RegionInfo {
	return &s.region
}
