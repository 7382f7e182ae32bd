package maptile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/scene"
)

// averageSampleSize is the edge length textures are reduced to before averaging.
const averageSampleSize = 32

// ColorCache maps texture ids to their average colour and persists the map
// as YAML. Entries are never invalidated automatically: a texture whose
// content changes under the same id keeps its old colour until Invalidate
// is called or the cache file is removed. Processes sharing one cache file
// overwrite each other's entries on Save.
type ColorCache struct {
	mu     sync.Mutex
	path   string
	colors map[string]color.RGBA
	dirty  bool
	log    *zap.Logger
}

type cacheFile struct {
	Version int               `yaml:"version"`
	Colors  map[string]string `yaml:"colors"`
}

// NewColorCache returns an empty cache persisted at path. An empty path
// keeps the cache in memory only.
func NewColorCache(path string) *ColorCache {
	return &ColorCache{
		path:   path,
		colors: make(map[string]color.RGBA),
		log:    logger.Named("maptile"),
	}
}

// Load replaces the cache contents with the file. A missing file is not an error.
func (c *ColorCache) Load() error {
	if c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var file cacheFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing colour cache %s: %w", c.path, err)
	}

	colors := make(map[string]color.RGBA, len(file.Colors))
	for id, hex := range file.Colors {
		col, err := scene.ParseHexColor(hex)
		if err != nil {
			c.log.Warn("skipping bad colour cache entry", zap.String("texture", id), zap.Error(err))
			continue
		}
		colors[id] = col
	}

	c.mu.Lock()
	c.colors = colors
	c.dirty = false
	c.mu.Unlock()
	return nil
}

// Save writes the cache if it changed since the last Load or Save.
func (c *ColorCache) Save() error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	file := cacheFile{Version: 1, Colors: make(map[string]string, len(c.colors))}
	for id, col := range c.colors {
		file.Colors[id] = fmt.Sprintf("#%02x%02x%02x%02x", col.R, col.G, col.B, col.A)
	}
	c.dirty = false
	c.mu.Unlock()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}
	return nil
}

// Get returns a cached colour.
func (c *ColorCache) Get(id string) (color.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.colors[id]
	return col, ok
}

// GetOrCompute returns the cached colour for id, or calls compute and caches
// its result. Failed computations are not cached.
func (c *ColorCache) GetOrCompute(id string, compute func() (color.RGBA, error)) (color.RGBA, error) {
	if col, ok := c.Get(id); ok {
		return col, nil
	}
	col, err := compute()
	if err != nil {
		return color.RGBA{}, err
	}
	c.mu.Lock()
	c.colors[id] = col
	c.dirty = true
	c.mu.Unlock()
	return col, nil
}

// Invalidate drops the entry for id.
func (c *ColorCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.colors[id]; ok {
		delete(c.colors, id)
		c.dirty = true
	}
}

// Len returns the number of cached colours.
func (c *ColorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.colors)
}

// IDs returns the cached texture ids in sorted order.
func (c *ColorCache) IDs() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.colors))
	for id := range c.colors {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// AverageColor returns the mean colour of img. Large images are reduced
// first; colour channels are weighted by alpha and the result is not
// alpha-premultiplied.
func AverageColor(img image.Image) color.RGBA {
	b := img.Bounds()
	if b.Empty() {
		return color.RGBA{}
	}

	src, ok := img.(*image.RGBA)
	if !ok || b.Dx() > averageSampleSize || b.Dy() > averageSampleSize {
		w, h := min(b.Dx(), averageSampleSize), min(b.Dy(), averageSampleSize)
		src = image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(src, src.Bounds(), img, b, xdraw.Src, nil)
	}

	// Pix is alpha-premultiplied, so summing it weights colour by alpha.
	var r, g, bl, a uint64
	sb := src.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		off := src.PixOffset(sb.Min.X, y)
		for x := 0; x < sb.Dx(); x++ {
			p := src.Pix[off+4*x : off+4*x+4]
			r += uint64(p[0])
			g += uint64(p[1])
			bl += uint64(p[2])
			a += uint64(p[3])
		}
	}
	if a == 0 {
		return color.RGBA{}
	}
	n := uint64(sb.Dx() * sb.Dy())
	return color.RGBA{
		R: uint8(r * 255 / a),
		G: uint8(g * 255 / a),
		B: uint8(bl * 255 / a),
		A: uint8(a / n),
	}
}
