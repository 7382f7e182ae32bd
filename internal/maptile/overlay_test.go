package maptile

import (
	"image"
	"image/color"
	"testing"

	"github.com/Faultbox/regiontile/internal/scene"
)

// cells returns a 4x4 parcel bitmap with the listed row-major cells set.
func cells(set ...int) []bool {
	b := make([]bool, 16)
	for _, i := range set {
		b[i] = true
	}
	return b
}

func TestForSaleOverlay(t *testing.T) {
	parcels := []scene.Parcel{
		{ID: "sw", Bitmap: cells(0), ForSale: true},
		{ID: "ne", Bitmap: cells(15), ForSale: true, Auction: true},
		{ID: "private", Bitmap: cells(5, 6)},
	}
	img, ok := ForSaleOverlay(parcels, 16, 16)
	if !ok {
		t.Fatal("ForSaleOverlay reported nothing for sale")
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{1, 14, ForSaleColor},  // south-west cell, bottom-left of the image
		{13, 1, AuctionColor},  // north-east cell, top-right
		{5, 10, color.RGBA{}},  // parcel not for sale
		{13, 14, color.RGBA{}}, // unowned
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestForSaleOverlay_NothingForSale(t *testing.T) {
	parcels := []scene.Parcel{
		{ID: "private", Bitmap: cells(0)},
		{ID: "bad bitmap", Bitmap: make([]bool, 3), ForSale: true},
	}
	if img, ok := ForSaleOverlay(parcels, 16, 16); ok || img != nil {
		t.Errorf("ForSaleOverlay = %v, %v, want nil, false", img, ok)
	}
	if _, ok := ForSaleOverlay(nil, 2, 2); ok {
		t.Error("region smaller than a parcel cell produced an overlay")
	}
}

func TestComposite(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	terrain := solid(4, 4, red)
	objects := image.NewRGBA(image.Rect(0, 0, 4, 4))
	objects.SetRGBA(2, 1, blue)

	out := Composite(terrain, objects, nil)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if got := out[0].RGBAAt(2, 1); got != blue {
		t.Errorf("object pixel = %v, want %v", got, blue)
	}
	if got := out[0].RGBAAt(0, 0); got != red {
		t.Errorf("terrain pixel = %v, want %v", got, red)
	}
	if terrain.RGBAAt(2, 1) != red {
		t.Error("Composite modified its terrain input")
	}

	forSale := image.NewRGBA(image.Rect(0, 0, 4, 4))
	out = Composite(terrain, nil, forSale)
	if len(out) != 2 || out[1] != forSale {
		t.Errorf("with overlay: got %d tiles", len(out))
	}
	if Composite(nil, objects, forSale) != nil {
		t.Error("Composite without terrain returned tiles")
	}
}

func TestComposite_ScalesOverlay(t *testing.T) {
	terrain := solid(8, 8, color.RGBA{R: 255, A: 255})
	objects := solid(4, 4, color.RGBA{G: 255, A: 255})
	out := Composite(terrain, objects, nil)
	if got := out[0].RGBAAt(4, 4); got.G != 255 || got.R != 0 {
		t.Errorf("scaled overlay pixel = %v, want green", got)
	}
}
