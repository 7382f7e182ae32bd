package maptile

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/Faultbox/regiontile/internal/asset"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/pkg/math"
)

// flakyRenderer fails on demand.
type flakyRenderer struct {
	TileRenderer
	fail bool
}

func (f *flakyRenderer) RenderTerrain(ctx context.Context, req *Request) (*image.RGBA, error) {
	if f.fail {
		return nil, errors.New("renderer unavailable")
	}
	return f.TileRenderer.RenderTerrain(ctx, req)
}

func (f *flakyRenderer) RenderObjects(ctx context.Context, req *Request) (*image.RGBA, error) {
	if f.fail {
		return nil, errors.New("renderer unavailable")
	}
	return f.TileRenderer.RenderObjects(ctx, req)
}

func testScene(t *testing.T, forSale bool) *scene.Static {
	region := testRegion(32)
	hf := flatField(t, 32, 32, 25)
	parcels := []scene.Parcel{{ID: "lot", Bitmap: make([]bool, 64), ForSale: forSale}}
	parcels[0].Bitmap[0] = true
	objects := []scene.RenderableObject{box("shed", 8, 8, 28, 4, color.RGBA{R: 180, G: 90, B: 40, A: 255})}
	return scene.NewStatic(region, hf, objects, parcels)
}

func decodePNG(t *testing.T, mem *asset.Memory, id uuid.UUID) image.Image {
	t.Helper()
	a, err := mem.Get(id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	if a.Type != asset.TypeMapTile || a.ContentType != "image/png" {
		t.Errorf("asset type %v content %q", a.Type, a.ContentType)
	}
	img, err := png.Decode(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	return img
}

func TestService_StoresThenUpdates(t *testing.T) {
	mem := asset.NewMemory()
	cache := NewColorCache(filepath.Join(t.TempDir(), "colors.yaml"))
	svc := NewService(Config{}, NewShadedRenderer(Deps{Cache: cache}), mem, cache)
	defer svc.Close()
	sc := testScene(t, true)

	first, err := svc.Generate(context.Background(), sc)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.Terrain == uuid.Nil || first.Objects == uuid.Nil || first.ForSale == uuid.Nil {
		t.Fatalf("missing tile ids: %+v", first)
	}
	if first.WorldView != uuid.Nil {
		t.Error("shaded renderer produced a world view")
	}
	if first.RegionID != sc.Region().ID || first.GeneratedAt.IsZero() {
		t.Errorf("set metadata = %+v", first)
	}
	if mem.Len() != 3 {
		t.Errorf("stored %d assets, want 3", mem.Len())
	}
	if b := decodePNG(t, mem, first.Terrain).Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("terrain tile bounds = %v", b)
	}

	second, err := svc.Generate(context.Background(), sc)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second.Terrain != first.Terrain || second.Objects != first.Objects || second.ForSale != first.ForSale {
		t.Errorf("ids changed on regeneration: %+v -> %+v", first, second)
	}
	if mem.Len() != 3 {
		t.Errorf("regeneration stored new assets: %d", mem.Len())
	}
	if got, ok := svc.Tiles(sc.Region().ID); !ok || got != second {
		t.Errorf("Tiles = %+v, %v", got, ok)
	}
}

func TestService_FailedRenderKeepsPreviousTiles(t *testing.T) {
	mem := asset.NewMemory()
	r := &flakyRenderer{TileRenderer: NewShadedRenderer(Deps{})}
	svc := NewService(Config{}, r, mem, nil)
	sc := testScene(t, false)

	first, err := svc.Generate(context.Background(), sc)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first.ForSale != uuid.Nil {
		t.Error("for-sale tile stored with nothing for sale")
	}
	before, _ := mem.GetData(context.Background(), first.Terrain)

	r.fail = true
	got, err := svc.Generate(context.Background(), sc)
	if err == nil {
		t.Fatal("Generate with failing renderer succeeded")
	}
	if got.Terrain != first.Terrain || got.Objects != first.Objects || !got.GeneratedAt.Equal(first.GeneratedAt) {
		t.Errorf("failed render changed tile set: %+v -> %+v", first, got)
	}
	after, _ := mem.GetData(context.Background(), first.Terrain)
	if !bytes.Equal(before, after) {
		t.Error("failed render changed stored tile content")
	}
}

// brokenTextures panics on every lookup.
type brokenTextures struct{}

func (brokenTextures) Texture(context.Context, string) (image.Image, error) {
	panic("texture store corrupted")
}

func TestService_RendererPanicBecomesError(t *testing.T) {
	region := testRegion(32)
	region.TerrainTextures[0] = "grass"
	sc := scene.NewStatic(region, flatField(t, 32, 32, 25), nil, nil)

	for _, async := range []bool{false, true} {
		mem := asset.NewMemory()
		svc := NewService(Config{Async: async}, NewWarp3DRenderer(Deps{Textures: brokenTextures{}}), mem, nil)

		done := make(chan error, 1)
		if err := svc.Request(context.Background(), sc, func(_ TileSet, err error) { done <- err }); err != nil {
			t.Fatalf("async=%v: Request: %v", async, err)
		}
		err := <-done
		svc.Close()

		if !errors.Is(err, ErrRenderPanic) {
			t.Errorf("async=%v: err = %v, want ErrRenderPanic", async, err)
		}
		if _, ok := svc.Tiles(region.ID); ok {
			t.Errorf("async=%v: tile set recorded after panicking renders", async)
		}
		if mem.Len() != 0 {
			t.Errorf("async=%v: %d assets stored, want 0", async, mem.Len())
		}
	}
}

func TestService_NoHeightfield(t *testing.T) {
	svc := NewService(Config{}, NewShadedRenderer(Deps{}), asset.NewMemory(), nil)
	sc := scene.NewStatic(testRegion(32), nil, nil, nil)
	if _, err := svc.Generate(context.Background(), sc); !errors.Is(err, ErrNoHeightfield) {
		t.Errorf("err = %v, want ErrNoHeightfield", err)
	}
}

func TestService_AsyncWorldView(t *testing.T) {
	mem := asset.NewMemory()
	cfg := Config{
		Format:  FormatJPEG,
		Async:   true,
		Workers: 1,
		Queue:   2,
		WorldView: &View{
			Position:  math.Vec3{X: -8, Y: -8, Z: 50},
			Direction: math.Vec3{X: 1, Y: 1, Z: -1},
			FOV:       1,
			Width:     24,
			Height:    16,
		},
	}
	svc := NewService(cfg, NewWarp3DRenderer(Deps{}), mem, nil)
	sc := testScene(t, false)

	type result struct {
		set TileSet
		err error
	}
	done := make(chan result, 1)
	if err := svc.Request(context.Background(), sc, func(set TileSet, err error) {
		done <- result{set, err}
	}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	res := <-done
	svc.Close()
	if res.err != nil {
		t.Fatalf("async Generate: %v", res.err)
	}
	if res.set.WorldView == uuid.Nil {
		t.Fatal("world view tile missing")
	}
	a, err := mem.Get(res.set.WorldView)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(a.Data))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Errorf("world view bounds = %v, want 24x16", b)
	}

	if err := svc.Request(context.Background(), sc, nil); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Request after Close: err = %v, want ErrPoolClosed", err)
	}
}

func TestEncode(t *testing.T) {
	img := solid(8, 8, color.RGBA{R: 50, G: 100, B: 150, A: 255})
	for _, f := range []Format{FormatPNG, FormatJPEG} {
		data, err := Encode(img, f, 0)
		if err != nil {
			t.Fatalf("Encode(%s): %v", f, err)
		}
		_, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil || format != string(f) {
			t.Errorf("Encode(%s) decodes as %q, %v", f, format, err)
		}
	}
	if _, err := Encode(img, "j2k", 0); err == nil {
		t.Error("unknown format accepted")
	}
	if FormatJPEG.ContentType() != "image/jpeg" || FormatPNG.Ext() != "png" {
		t.Error("format metadata mismatch")
	}
}
