package maptile

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/regiontile/internal/asset"
	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/scene"
)

// ErrRenderPanic wraps a panic recovered while rendering a tile.
var ErrRenderPanic = errors.New("maptile: renderer panicked")

// Config controls tile generation.
type Config struct {
	Format  Format
	Quality int
	Size    int

	// WorldView, when set and supported by the renderer, adds an oblique
	// view tile to every set.
	WorldView *View

	// Async queues requests on a worker pool instead of rendering in the caller.
	Async   bool
	Workers int
	Queue   int
}

// TileSet holds the asset ids of the tiles last stored for a region.
// Ids are uuid.Nil for tiles never produced.
type TileSet struct {
	RegionID    uuid.UUID
	Terrain     uuid.UUID
	Objects     uuid.UUID
	ForSale     uuid.UUID
	WorldView   uuid.UUID
	GeneratedAt time.Time
}

// Service renders scenes into tiles and stores them as assets.
type Service struct {
	cfg      Config
	renderer TileRenderer
	assets   asset.Service
	cache    *ColorCache
	pool     *Pool
	log      *zap.Logger

	mu   sync.Mutex
	sets map[uuid.UUID]TileSet
}

// NewService creates a tile service. cache may be nil; when set it is saved
// after every generated set.
func NewService(cfg Config, renderer TileRenderer, assets asset.Service, cache *ColorCache) *Service {
	if cfg.Format == "" {
		cfg.Format = FormatPNG
	}
	s := &Service{
		cfg:      cfg,
		renderer: renderer,
		assets:   assets,
		cache:    cache,
		log:      logger.Named("maptile"),
		sets:     make(map[uuid.UUID]TileSet),
	}
	if cfg.Async {
		s.pool = NewPool(cfg.Workers, cfg.Queue)
	}
	return s
}

// Tiles returns the last stored tile set of a region.
func (s *Service) Tiles(region uuid.UUID) (TileSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[region]
	return set, ok
}

// Request generates tiles for sc. In async mode the work is queued and
// done, if not nil, is called from a worker; otherwise it runs before
// Request returns. The returned error only reports queueing failures in
// async mode.
func (s *Service) Request(ctx context.Context, sc scene.Scene, done func(TileSet, error)) error {
	job := func() {
		set, err := s.safeGenerate(ctx, sc)
		if done != nil {
			done(set, err)
		}
	}
	if s.pool == nil {
		job()
		return nil
	}
	return s.pool.Submit(job)
}

// Generate renders and stores every tile for sc. Tiles that fail to render
// or store keep their previous asset id; the returned set always reflects
// what is stored.
func (s *Service) Generate(ctx context.Context, sc scene.Scene) (TileSet, error) {
	region := sc.Region()
	prev, _ := s.Tiles(region.ID)
	set := prev
	set.RegionID = region.ID

	hf := sc.Heightfield()
	if hf == nil {
		return prev, fmt.Errorf("region %s: %w", region.Name, ErrNoHeightfield)
	}
	start := time.Now()
	req := &Request{
		Region:      region,
		Heightfield: hf.Copy(),
		Objects:     append([]scene.RenderableObject(nil), sc.Entities()...),
		Size:        s.cfg.Size,
	}

	var errs error
	stored := 0
	put := func(id *uuid.UUID, kind string, img *image.RGBA, err error) {
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rendering %s tile: %w", kind, err))
			return
		}
		newID, err := s.store(ctx, *id, region, kind, img)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("storing %s tile: %w", kind, err))
			return
		}
		*id = newID
		stored++
	}

	terrainImg, err := safeRender(func() (*image.RGBA, error) {
		return s.renderer.RenderTerrain(ctx, req)
	})
	put(&set.Terrain, "terrain", terrainImg, err)

	forSale, _ := ForSaleOverlay(sc.Parcels(), hf.Width(), hf.Height())
	objectsImg, err := safeRender(func() (*image.RGBA, error) {
		return s.renderer.RenderObjects(ctx, req)
	})
	if err != nil {
		put(&set.Objects, "objects", nil, err)
	} else {
		tiles := Composite(objectsImg, nil, forSale)
		put(&set.Objects, "objects", tiles[0], nil)
		if len(tiles) > 1 {
			put(&set.ForSale, "forsale", tiles[1], nil)
		}
	}

	if s.cfg.WorldView != nil {
		if wv, ok := s.renderer.(WorldViewer); ok {
			img, err := safeRender(func() (*image.RGBA, error) {
				return wv.RenderWorldView(ctx, req, *s.cfg.WorldView)
			})
			put(&set.WorldView, "worldview", img, err)
		}
	}

	if s.cache != nil {
		errs = multierr.Append(errs, s.cache.Save())
	}

	if stored > 0 {
		set.GeneratedAt = time.Now().UTC()
		s.mu.Lock()
		s.sets[region.ID] = set
		s.mu.Unlock()
	}

	fields := []zap.Field{
		zap.String("region", region.Name),
		zap.String("renderer", string(s.renderer.Kind())),
		zap.Int("stored", stored),
		zap.Duration("took", time.Since(start)),
	}
	if errs != nil {
		s.log.Warn("map tiles incomplete", append(fields, zap.Error(errs))...)
	} else {
		s.log.Info("map tiles generated", fields...)
	}
	return set, errs
}

// safeGenerate runs Generate, reporting a panic as an error so a completion
// callback still fires.
func (s *Service) safeGenerate(ctx context.Context, sc scene.Scene) (set TileSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tile generation panicked", zap.Any("panic", r))
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()
	return s.Generate(ctx, sc)
}

// safeRender calls fn, converting a panic in renderer or collaborator
// code into an error.
func safeRender(fn func() (*image.RGBA, error)) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()
	return fn()
}

// store updates the asset prev in place, or creates a new one when there is
// none or it has disappeared.
func (s *Service) store(ctx context.Context, prev uuid.UUID, region scene.RegionInfo, kind string, img *image.RGBA) (uuid.UUID, error) {
	data, err := Encode(img, s.cfg.Format, s.cfg.Quality)
	if err != nil {
		return uuid.Nil, err
	}
	if prev != uuid.Nil {
		id, err := s.assets.UpdateContent(ctx, prev, data)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, asset.ErrNotFound) {
			return uuid.Nil, err
		}
	}
	return s.assets.Store(ctx, &asset.Asset{
		ID:          uuid.New(),
		Name:        fmt.Sprintf("%s %s map tile", region.Name, kind),
		Description: fmt.Sprintf("region %s", region.ID),
		Type:        asset.TypeMapTile,
		ContentType: s.cfg.Format.ContentType(),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	})
}

// Close stops the worker pool after queued requests finish.
func (s *Service) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
