package maptile

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/regiontile/internal/scene"
)

// Parcel overlay colours.
var (
	ForSaleColor = color.RGBA{R: 249, G: 223, B: 9, A: 255}
	AuctionColor = color.RGBA{R: 144, G: 24, B: 144, A: 255}
)

// ForSaleOverlay paints the footprint of every parcel for sale on a
// transparent sizeX×sizeY image, purple for auctions and yellow otherwise.
// It returns false when no parcel is for sale; callers then skip the overlay.
func ForSaleOverlay(parcels []scene.Parcel, sizeX, sizeY int) (*image.RGBA, bool) {
	cols, rows := sizeX/scene.ParcelGrid, sizeY/scene.ParcelGrid
	if cols == 0 || rows == 0 {
		return nil, false
	}

	var img *image.RGBA
	for _, p := range parcels {
		if !p.ForSale || len(p.Bitmap) != cols*rows {
			continue
		}
		if img == nil {
			img = image.NewRGBA(image.Rect(0, 0, sizeX, sizeY))
		}
		c := ForSaleColor
		if p.Auction {
			c = AuctionColor
		}
		fill := image.NewUniform(c)
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				if !p.Bitmap[row*cols+col] {
					continue
				}
				// Bitmap rows run south to north; image rows north to south.
				y1 := sizeY - row*scene.ParcelGrid
				cell := image.Rect(col*scene.ParcelGrid, y1-scene.ParcelGrid, (col+1)*scene.ParcelGrid, y1)
				xdraw.Draw(img, cell, fill, image.Point{}, xdraw.Src)
			}
		}
	}
	return img, img != nil
}

// Composite layers the object overlay over the terrain and returns the
// final tiles: the combined map tile first, then the for-sale overlay when
// there is one. objects and forSale may be nil. An overlay of a different
// size is scaled to the terrain tile.
func Composite(terrain, objects, forSale *image.RGBA) []*image.RGBA {
	if terrain == nil {
		return nil
	}
	b := terrain.Bounds()
	base := image.NewRGBA(b)
	xdraw.Draw(base, b, terrain, b.Min, xdraw.Src)

	if objects != nil {
		if objects.Bounds().Size() == b.Size() {
			xdraw.Draw(base, b, objects, objects.Bounds().Min, xdraw.Over)
		} else {
			xdraw.BiLinear.Scale(base, b, objects, objects.Bounds(), xdraw.Over, nil)
		}
	}

	out := []*image.RGBA{base}
	if forSale != nil {
		out = append(out, forSale)
	}
	return out
}
