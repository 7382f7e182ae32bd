package maptile

import (
	"context"
	"encoding/binary"
	"image"
	"image/color"

	"github.com/aquilax/go-perlin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
)

// DefaultBandColors are used for terrain bands without a usable texture,
// lowest band first.
var DefaultBandColors = [4]color.RGBA{
	{R: 164, G: 136, B: 117, A: 255},
	{R: 65, G: 87, B: 47, A: 255},
	{R: 157, G: 145, B: 131, A: 255},
	{R: 125, G: 128, B: 130, A: 255},
}

const (
	// splatJitter is the noise amplitude, in bands, added to the band index
	// so band borders are not contour lines.
	splatJitter = 0.5
	// splatNoiseFrequency is the jitter noise frequency in cycles per meter.
	splatNoiseFrequency = 1.0 / 16
	// splatTextureTile is how many meters one band texture repeat covers.
	splatTextureTile = 16
)

// band is one height band's colour source.
type band struct {
	img image.Image
	avg color.RGBA
}

func (b *band) at(x, y int) color.RGBA {
	if b.img == nil {
		return b.avg
	}
	bounds := b.img.Bounds()
	tx := bounds.Min.X + (x%splatTextureTile)*bounds.Dx()/splatTextureTile
	ty := bounds.Min.Y + (y%splatTextureTile)*bounds.Dy()/splatTextureTile
	return color.RGBAModel.Convert(b.img.At(tx, ty)).(color.RGBA)
}

// loadBands resolves the region's four terrain textures.
func (r *Warp3DRenderer) loadBands(ctx context.Context, region *scene.RegionInfo) [4]band {
	var bands [4]band
	for i := range bands {
		bands[i].avg = DefaultBandColors[i]
		id := region.TerrainTextures[i]
		if id == "" || r.textures == nil {
			continue
		}
		img, err := r.textures.Texture(ctx, id)
		if err != nil {
			r.log.Debug("terrain texture unavailable, using default colour",
				zap.Int("band", i), zap.String("texture", id), zap.Error(err))
			continue
		}
		avg, _ := r.cache.GetOrCompute(id, func() (color.RGBA, error) {
			return AverageColor(img), nil
		})
		bands[i] = band{img: img, avg: avg}
	}
	return bands
}

// bilerp interpolates per-corner values at normalized position (fx, fy),
// fx growing east and fy growing north.
func bilerp(c scene.Corners, fx, fy float64) float64 {
	south := c[scene.CornerSW]*(1-fx) + c[scene.CornerSE]*fx
	north := c[scene.CornerNW]*(1-fx) + c[scene.CornerNE]*fx
	return south*(1-fy) + north*fy
}

// regionSeed derives a stable noise seed from the region id.
func regionSeed(id uuid.UUID) int64 {
	return int64(binary.LittleEndian.Uint64(id[:8]))
}

// splatTexture builds the terrain texture: each meter blends the two height
// bands around its elevation. Row 0 is the north edge.
func splatTexture(hf *terrain.HeightField, region *scene.RegionInfo, bands [4]band) *image.RGBA {
	w, h := hf.Width(), hf.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	noise := perlin.NewPerlin(2, 2, 3, regionSeed(region.ID))

	fxDen := float64(max(w-1, 1))
	fyDen := float64(max(h-1, 1))
	for y := 0; y < h; y++ {
		fy := float64(y) / fyDen
		for x := 0; x < w; x++ {
			fx := float64(x) / fxDen
			start := bilerp(region.ElevationStart, fx, fy)
			span := bilerp(region.ElevationRange, fx, fy)

			var layer float64
			if span > 0 {
				layer = (hf.Get(x, y) - start) / span * 3
			} else if hf.Get(x, y) > start {
				layer = 3
			}
			layer += noise.Noise2D(float64(x)*splatNoiseFrequency, float64(y)*splatNoiseFrequency) * splatJitter
			layer = min(max(layer, 0), 3)

			lo := int(layer)
			hi := min(lo+1, 3)
			t := layer - float64(lo)
			c := mix(bands[lo].at(x, y), bands[hi].at(x, y), t)
			img.SetRGBA(x, h-1-y, c)
		}
	}
	return img
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t + 0.5)
	}
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: 255}
}
