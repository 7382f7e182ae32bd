// Package config handles pipeline configuration loading and management.
package config

import (
	"fmt"
	"slices"
)

// Config holds all pipeline settings.
type Config struct {
	Terrain TerrainConfig `yaml:"terrain"`
	MapTile MapTileConfig `yaml:"maptile"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// TerrainConfig holds generator defaults used when a scene names no terrain.
type TerrainConfig struct {
	Preset    string  `yaml:"preset"`
	Size      int     `yaml:"size"` // meters per side
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Smoothing int     `yaml:"smoothing"` // blur passes
	Seed      uint64  `yaml:"seed"`      // 0 picks a random seed
}

// MapTileConfig holds tile rendering settings.
type MapTileConfig struct {
	Renderer   string          `yaml:"renderer"` // shaded | warp3d
	Format     string          `yaml:"format"`   // png | jpeg
	Quality    int             `yaml:"quality"`  // jpeg only
	Size       int             `yaml:"size"`     // pixels per side, 0 = one per meter
	Async      bool            `yaml:"async"`
	Workers    int             `yaml:"workers"`
	Queue      int             `yaml:"queue"`
	ColorCache string          `yaml:"color_cache"` // average colour cache file
	WorldView  WorldViewConfig `yaml:"world_view"`
}

// WorldViewConfig describes the optional oblique view tile.
type WorldViewConfig struct {
	Enabled   bool       `yaml:"enabled"`
	Width     int        `yaml:"width"`
	Height    int        `yaml:"height"`
	FOV       float32    `yaml:"fov"` // vertical, degrees
	Position  [3]float32 `yaml:"position"`
	Direction [3]float32 `yaml:"direction"`
}

// StorageConfig holds output locations.
type StorageConfig struct {
	AssetDB   string `yaml:"asset_db"`   // SQLite asset store
	OutputDir string `yaml:"output_dir"` // tile image copies, empty to skip
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Preset:    "mainland",
			Size:      256,
			Min:       0,
			Max:       60,
			Smoothing: 2,
		},
		MapTile: MapTileConfig{
			Renderer: "shaded",
			Format:   "png",
			Quality:  90,
			Async:    false,
			Workers:  1,
			Queue:    16,
			WorldView: WorldViewConfig{
				Width:     512,
				Height:    256,
				FOV:       60,
				Position:  [3]float32{-40, -40, 120},
				Direction: [3]float32{1, 1, -0.6},
			},
		},
		Storage: StorageConfig{
			AssetDB:   "assets.db",
			OutputDir: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"shaded", "warp3d"}, c.MapTile.Renderer) {
		return fmt.Errorf("maptile.renderer: unknown renderer %q", c.MapTile.Renderer)
	}
	if !slices.Contains([]string{"png", "jpeg"}, c.MapTile.Format) {
		return fmt.Errorf("maptile.format: unknown format %q", c.MapTile.Format)
	}
	if c.MapTile.Size < 0 {
		return fmt.Errorf("maptile.size: must not be negative, got %d", c.MapTile.Size)
	}
	if c.MapTile.WorldView.Enabled && (c.MapTile.WorldView.Width <= 0 || c.MapTile.WorldView.Height <= 0) {
		return fmt.Errorf("maptile.world_view: size %dx%d", c.MapTile.WorldView.Width, c.MapTile.WorldView.Height)
	}
	if c.Terrain.Max < c.Terrain.Min {
		return fmt.Errorf("terrain: max %.1f below min %.1f", c.Terrain.Max, c.Terrain.Min)
	}
	return nil
}
