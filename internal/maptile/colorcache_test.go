package maptile

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestColorCache_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "colors.yaml")
	c := NewColorCache(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}

	calls := 0
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	compute := func() (color.RGBA, error) {
		calls++
		return want, nil
	}
	for range 3 {
		got, err := c.GetOrCompute("grass", compute)
		if err != nil || got != want {
			t.Fatalf("GetOrCompute = %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewColorCache(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, ok := reloaded.Get("grass"); !ok || got != want {
		t.Errorf("reloaded Get = %v, %v, want %v", got, ok, want)
	}

	reloaded.Invalidate("grass")
	if reloaded.Len() != 0 {
		t.Errorf("Len after Invalidate = %d", reloaded.Len())
	}
	if err := reloaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again := NewColorCache(path)
	if err := again.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if again.Len() != 0 {
		t.Errorf("invalidated entry survived a save: %v", again.IDs())
	}
}

func TestColorCache_FailuresNotCached(t *testing.T) {
	c := NewColorCache("")
	boom := errors.New("decode failed")
	if _, err := c.GetOrCompute("bad", func() (color.RGBA, error) { return color.RGBA{}, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Error("failed computation was cached")
	}
}

func TestColorCache_SkipsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colors.yaml")
	data := "version: 1\ncolors:\n  good: \"#0a141eff\"\n  bad: \"green\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewColorCache(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ids := c.IDs(); len(ids) != 1 || ids[0] != "good" {
		t.Errorf("IDs = %v, want [good]", ids)
	}

	if err := os.WriteFile(path, []byte("colors: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewColorCache(path).Load(); err == nil {
		t.Error("Load of malformed YAML succeeded")
	}
}

func TestAverageColor(t *testing.T) {
	if got, want := AverageColor(solid(4, 4, color.RGBA{R: 200, G: 100, B: 50, A: 255})), (color.RGBA{R: 200, G: 100, B: 50, A: 255}); got != want {
		t.Errorf("solid = %v, want %v", got, want)
	}

	half := image.NewRGBA(image.Rect(0, 0, 2, 1))
	half.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	if got, want := AverageColor(half), (color.RGBA{R: 255, A: 127}); got != want {
		t.Errorf("half transparent = %v, want %v", got, want)
	}

	big := solid(100, 60, color.RGBA{G: 90, A: 255})
	if got := AverageColor(big); got.G < 89 || got.G > 91 || got.A != 255 {
		t.Errorf("downsampled = %v, want ~{0 90 0 255}", got)
	}

	if got := AverageColor(image.NewRGBA(image.Rectangle{})); got != (color.RGBA{}) {
		t.Errorf("empty = %v", got)
	}
}
