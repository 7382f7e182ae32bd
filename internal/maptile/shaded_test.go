package maptile

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/Faultbox/regiontile/internal/render"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain/generator"
)

func TestShaded_Deterministic(t *testing.T) {
	region := testRegion(64)
	hf := generator.New(7).Generate("mainland", 0, 60, 2, &region)
	req := &Request{Region: region, Heightfield: hf}

	a, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	b, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders of the same heightfield differ")
	}
}

func TestShaded_FlatLand(t *testing.T) {
	hf := flatField(t, 8, 8, 25)
	img, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), &Request{Region: testRegion(8), Heightfield: hf})
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	want := color.RGBA{R: 25, G: 57, B: 18, A: 255}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestShaded_NorthIsUp(t *testing.T) {
	hf := flatField(t, 8, 8, 25)
	hf.Set(3, 7, 5) // northern edge, under water
	img, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), &Request{Region: testRegion(8), Heightfield: hf})
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	if got := img.RGBAAt(3, 0); got != WaterColor {
		t.Errorf("top row pixel = %v, want water %v", got, WaterColor)
	}
	if got := img.RGBAAt(3, 7); got == WaterColor {
		t.Error("bottom row pixel is water, want land")
	}
}

func TestShaded_SlopeShading(t *testing.T) {
	hf := flatField(t, 4, 4, 25)
	hf.Set(1, 1, 27)
	img, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), &Request{Region: testRegion(4), Heightfield: hf})
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	// (1,1) sits 2m above (0,0) and darkens.
	if got, want := img.RGBAAt(1, 2), (color.RGBA{R: 7, G: 39, B: 0, A: 255}); got != want {
		t.Errorf("raised cell = %v, want %v", got, want)
	}
	// (2,2) is 2m below (1,1) and brightens.
	if got, want := img.RGBAAt(2, 1), (color.RGBA{R: 45, G: 77, B: 38, A: 255}); got != want {
		t.Errorf("downhill cell = %v, want %v", got, want)
	}
}

func TestShadeDelta(t *testing.T) {
	tests := []struct {
		diff   float64
		delta  int
		wantOK bool
	}{
		{0.1, 0, true},
		{-0.29, 0, true},
		{0.5, 5, true},
		{-1, -10, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{5000, 0, false},
		{-4000, 0, false},
	}
	for _, tt := range tests {
		delta, ok := shadeDelta(tt.diff)
		if delta != tt.delta || ok != tt.wantOK {
			t.Errorf("shadeDelta(%v) = %d,%v, want %d,%v", tt.diff, delta, ok, tt.delta, tt.wantOK)
		}
	}
}

func TestShift_Saturates(t *testing.T) {
	c := color.RGBA{R: 10, G: 250, B: 100, A: 255}
	if got := shift(c, 20); got != (color.RGBA{R: 30, G: 255, B: 120, A: 255}) {
		t.Errorf("shift(+20) = %v", got)
	}
	if got := shift(c, -50); got != (color.RGBA{R: 0, G: 200, B: 50, A: 255}) {
		t.Errorf("shift(-50) = %v", got)
	}
}

func TestShaded_Resize(t *testing.T) {
	hf := flatField(t, 32, 32, 25)
	img, err := NewShadedRenderer(Deps{}).RenderTerrain(context.Background(), &Request{Region: testRegion(32), Heightfield: hf, Size: 16})
	if err != nil {
		t.Fatalf("RenderTerrain: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("bounds = %v, want 16x16", b)
	}
}

func TestShaded_Errors(t *testing.T) {
	r := NewShadedRenderer(Deps{})
	if _, err := r.RenderTerrain(context.Background(), &Request{}); !errors.Is(err, ErrNoHeightfield) {
		t.Errorf("no heightfield: err = %v", err)
	}
	hf := flatField(t, 16, 16, 25)
	if _, err := r.ObjectOverlay(context.Background(), &Request{Heightfield: hf, Size: 5000}); !errors.Is(err, render.ErrRenderTarget) {
		t.Errorf("oversized overlay: err = %v, want ErrRenderTarget", err)
	}
}

func TestShaded_ObjectsOverTerrain(t *testing.T) {
	hf := flatField(t, 64, 64, 10)
	req := &Request{
		Region:      testRegion(64),
		Heightfield: hf,
		Objects:     []scene.RenderableObject{box("house", 16, 16, 25, 8, color.RGBA{R: 200, G: 30, B: 30, A: 255})},
	}
	r := NewShadedRenderer(Deps{})
	img, err := r.RenderObjects(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderObjects: %v", err)
	}
	if got := img.RGBAAt(16, 48); got == WaterColor {
		t.Error("object footprint shows water")
	}
	if got := img.RGBAAt(50, 5); got != WaterColor {
		t.Errorf("open water = %v, want %v", got, WaterColor)
	}
}
