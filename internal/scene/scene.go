// Package scene describes the region collaborators consumed by the terrain
// and map-tile pipeline: region settings, renderable objects, parcels and an
// optional prim mesher.
package scene

import (
	"image"
	"image/color"

	"github.com/google/uuid"

	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/pkg/math"
)

// Corner indices used by Corners.
const (
	CornerSW = iota
	CornerNW
	CornerSE
	CornerNE
)

// Corners holds one value per region corner, ordered SW, NW, SE, NE.
type Corners [4]float64

// RegionInfo is the read-only region configuration used by generation and
// rendering.
type RegionInfo struct {
	ID          uuid.UUID
	Name        string
	SizeX       int
	SizeY       int
	WaterHeight float64

	// TerrainTextures are the asset ids of the four height-band textures,
	// lowest band first. Empty entries use the built-in band colours.
	TerrainTextures [4]string

	// ElevationStart and ElevationRange define, per corner, where the
	// texture bands begin and how many meters they span.
	ElevationStart Corners
	ElevationRange Corners

	// LandArea is recomputed after terrain generation: square meters above water.
	LandArea int
}

// DefaultRegion returns a 256×256 region with the usual water level and
// band defaults.
func DefaultRegion(name string) RegionInfo {
	return RegionInfo{
		ID:             uuid.New(),
		Name:           name,
		SizeX:          256,
		SizeY:          256,
		WaterHeight:    20,
		ElevationStart: Corners{10, 10, 10, 10},
		ElevationRange: Corners{60, 60, 60, 60},
	}
}

// ShapeKind classifies how an object's geometry is produced.
type ShapeKind int

// Shape kinds.
const (
	ShapeBox ShapeKind = iota
	ShapeSculpt
	ShapeMesh
)

// String returns the shape name.
func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSculpt:
		return "sculpt"
	case ShapeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// RenderableObject is a snapshot of a scene entity for volume rendering.
// It is borrowed per render call and never modified.
type RenderableObject struct {
	ID       string
	Position math.Vec3 // centre, region coordinates, meters
	Rotation math.Quat
	Scale    math.Vec3 // full extent along each local axis
	Shape    ShapeKind

	Color     color.RGBA // face tint
	TextureID string     // face texture asset id, optional

	// SculptTextureID is the sculpt map asset for ShapeSculpt, or the mesh
	// asset for ShapeMesh.
	SculptTextureID string
}

// Parcel is a region land parcel as seen by the for-sale overlay.
type Parcel struct {
	ID   string
	Name string

	// Bitmap marks the 4m×4m cells the parcel covers, row-major, south row first,
	// (SizeX/ParcelGrid)*(SizeY/ParcelGrid) entries.
	Bitmap []bool

	ForSale bool
	Auction bool
}

// ParcelGrid is the parcel subdivision granularity in meters.
const ParcelGrid = 4

// Scene is the region-side view needed to produce map tiles.
type Scene interface {
	Region() RegionInfo
	Heightfield() *terrain.HeightField
	Entities() []RenderableObject
	Parcels() []Parcel
}

// MeshData is object-local geometry in a unit cube centred on the origin.
type MeshData struct {
	Positions []math.Vec3
	UVs       []math.Vec2
	Indices   []uint32
}

// Mesher builds geometry for non-box shapes. Implementations are optional;
// the renderer skips sculpt and mesh objects when none is configured.
type Mesher interface {
	FacetedMesh(obj RenderableObject) (*MeshData, error)
	SculptMesh(obj RenderableObject, sculpt image.Image) (*MeshData, error)
}
