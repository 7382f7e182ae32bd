package main

import (
	"context"
	"flag"
	"fmt"
	gomath "math"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/regiontile/internal/asset"
	"github.com/Faultbox/regiontile/internal/config"
	"github.com/Faultbox/regiontile/internal/logger"
	"github.com/Faultbox/regiontile/internal/maptile"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/internal/terrain/generator"
	"github.com/Faultbox/regiontile/internal/texture"
	"github.com/Faultbox/regiontile/pkg/math"
)

// pipeline holds everything a render command needs.
type pipeline struct {
	ctx     context.Context
	stop    context.CancelFunc
	cfg     *config.Config
	store   *asset.SQLiteStore
	cache   *maptile.ColorCache
	service *maptile.Service
	log     *zap.Logger
}

// result is one rendered region.
type result struct {
	Scene string
	Name  string
	Tiles maptile.TileSet
	Files []string
}

// openPipeline parses the shared flags and opens storage and the tile service.
func openPipeline(fs *flag.FlagSet, args []string) (*pipeline, error) {
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	log := logger.Named("cli")

	store, err := asset.OpenSQLite(cfg.Storage.AssetDB)
	if err != nil {
		return nil, err
	}

	cache := maptile.NewColorCache(cfg.MapTile.ColorCache)
	if err := cache.Load(); err != nil {
		log.Warn("ignoring colour cache", zap.String("path", cfg.MapTile.ColorCache), zap.Error(err))
	}

	deps := maptile.Deps{
		Textures: maptile.NewAssetTextures(store, texture.NewCodec()),
		Cache:    cache,
	}
	renderer, err := maptile.NewRenderer(maptile.Kind(cfg.MapTile.Renderer), deps)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svcCfg := maptile.Config{
		Format:  maptile.Format(cfg.MapTile.Format),
		Quality: cfg.MapTile.Quality,
		Size:    cfg.MapTile.Size,
		Async:   cfg.MapTile.Async,
		Workers: cfg.MapTile.Workers,
		Queue:   cfg.MapTile.Queue,
	}
	if wv := cfg.MapTile.WorldView; wv.Enabled {
		svcCfg.WorldView = &maptile.View{
			Position:  math.Vec3{X: wv.Position[0], Y: wv.Position[1], Z: wv.Position[2]},
			Direction: math.Vec3{X: wv.Direction[0], Y: wv.Direction[1], Z: wv.Direction[2]},
			FOV:       wv.FOV * gomath.Pi / 180,
			Width:     wv.Width,
			Height:    wv.Height,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	log.Debug("pipeline ready",
		zap.String("renderer", cfg.MapTile.Renderer),
		zap.String("assets", cfg.Storage.AssetDB),
		zap.Bool("async", cfg.MapTile.Async))

	return &pipeline{
		ctx:     ctx,
		stop:    stop,
		cfg:     cfg,
		store:   store,
		cache:   cache,
		service: maptile.NewService(svcCfg, renderer, store, cache),
		log:     log,
	}, nil
}

// Close waits for queued tiles and releases storage.
func (p *pipeline) Close() {
	p.service.Close()
	err := multierr.Combine(p.cache.Save(), p.store.Close())
	if err != nil {
		p.log.Warn("shutdown", zap.Error(err))
	}
	p.stop()
	logger.Sync()
}

// renderScene loads a scene file, resolves its terrain and stores its tiles.
func (p *pipeline) renderScene(ctx context.Context, path string) (result, error) {
	sc, err := scene.LoadStatic(path)
	if err != nil {
		return result{}, err
	}
	hf, err := p.loadTerrain(sc, filepath.Dir(path))
	if err != nil {
		return result{}, err
	}
	sc.SetHeightfield(hf)

	set, err := p.generate(ctx, sc)
	res := result{Scene: path, Name: sc.Region().Name, Tiles: set}
	if err != nil {
		return res, err
	}
	res.Files, err = p.writeFiles(ctx, sc.Region(), set)
	return res, err
}

// loadTerrain reads the scene's heightfield file, or generates one from the
// scene preset, falling back to the configured defaults.
func (p *pipeline) loadTerrain(sc *scene.Static, dir string) (*terrain.HeightField, error) {
	ts := sc.Terrain
	region := sc.RegionPtr()

	if ts.File != "" {
		path := ts.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		hf, err := terrain.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if hf.Width() != region.SizeX || hf.Height() != region.SizeY {
			p.log.Warn("heightfield size differs from region",
				zap.String("file", path),
				zap.Int("width", hf.Width()),
				zap.Int("height", hf.Height()))
		}
		sc.SetLandArea(hf.LandArea(region.WaterHeight))
		return hf, nil
	}

	defaults := p.cfg.Terrain
	preset := ts.Preset
	if preset == "" {
		preset = defaults.Preset
	}
	lo, hi := ts.Min, ts.Max
	if lo == 0 && hi == 0 {
		lo, hi = defaults.Min, defaults.Max
	}
	smoothing := ts.Smoothing
	if smoothing == 0 {
		smoothing = defaults.Smoothing
	}
	seed := ts.Seed
	if seed == 0 {
		seed = defaults.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return generator.New(seed).Generate(preset, lo, hi, smoothing, region), nil
}

// generate runs the tile service, through its worker pool when configured.
func (p *pipeline) generate(ctx context.Context, sc scene.Scene) (maptile.TileSet, error) {
	if !p.cfg.MapTile.Async {
		return p.service.Generate(ctx, sc)
	}
	type outcome struct {
		set maptile.TileSet
		err error
	}
	done := make(chan outcome, 1)
	if err := p.service.Request(ctx, sc, func(set maptile.TileSet, err error) {
		done <- outcome{set, err}
	}); err != nil {
		return maptile.TileSet{}, err
	}
	o := <-done
	return o.set, o.err
}

// renderBatch renders scenes concurrently, at most one per tile worker.
// It returns the regions that rendered and the first error.
func (p *pipeline) renderBatch(paths []string) ([]result, error) {
	g, ctx := errgroup.WithContext(p.ctx)
	g.SetLimit(max(p.cfg.MapTile.Workers, 1))

	results := make([]result, len(paths))
	ok := make([]bool, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			res, err := p.renderScene(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i], ok[i] = res, true
			return nil
		})
	}
	err := g.Wait()

	done := results[:0]
	for i := range results {
		if ok[i] {
			done = append(done, results[i])
		}
	}
	return done, err
}

// writeFiles copies the stored tiles to the output directory, if one is set.
func (p *pipeline) writeFiles(ctx context.Context, region scene.RegionInfo, set maptile.TileSet) ([]string, error) {
	dir := p.cfg.Storage.OutputDir
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	ext := maptile.Format(p.cfg.MapTile.Format).Ext()
	tiles := []struct {
		kind string
		id   uuid.UUID
	}{
		{"terrain", set.Terrain},
		{"objects", set.Objects},
		{"forsale", set.ForSale},
		{"worldview", set.WorldView},
	}

	var files []string
	var errs error
	for _, tile := range tiles {
		if tile.id == uuid.Nil {
			continue
		}
		data, err := p.store.GetData(ctx, tile.id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", slug(region.Name), tile.kind, ext))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		files = append(files, name)
	}
	return files, errs
}

// storeTexture saves an image as a texture asset.
func (p *pipeline) storeTexture(name, format string, data []byte) (uuid.UUID, error) {
	return p.store.Store(p.ctx, &asset.Asset{
		Name:        name,
		Type:        asset.TypeTexture,
		ContentType: "image/" + format,
		Data:        data,
	})
}

// slug turns a region name into a file name.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(name))
	if s == "" {
		return "region"
	}
	return s
}

func printResult(res result) {
	fmt.Printf("Region:    %s (%s)\n", res.Name, res.Scene)
	fmt.Printf("  terrain:   %s\n", res.Tiles.Terrain)
	fmt.Printf("  objects:   %s\n", res.Tiles.Objects)
	if res.Tiles.ForSale != uuid.Nil {
		fmt.Printf("  for sale:  %s\n", res.Tiles.ForSale)
	}
	if res.Tiles.WorldView != uuid.Nil {
		fmt.Printf("  worldview: %s\n", res.Tiles.WorldView)
	}
	for _, f := range res.Files {
		fmt.Printf("  wrote %s\n", f)
	}
}
