package config

import "flag"

var (
	flagConfig   *string
	flagDebug    *bool
	flagRenderer *string
	flagFormat   *string
	flagSize     *int
	flagAsync    *bool
	flagWorkers  *int
	flagAssetDB  *string
	flagOutput   *string
	flagLogFile  *string
)

// RegisterFlags adds the shared flags to fs. Call it before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) {
	flagConfig = fs.String("config", "", "Path to config file")
	flagDebug = fs.Bool("debug", false, "Enable debug logging")
	flagRenderer = fs.String("renderer", "", "Tile renderer: shaded or warp3d")
	flagFormat = fs.String("format", "", "Tile image format: png or jpeg")
	flagSize = fs.Int("size", 0, "Tile size in pixels")
	flagAsync = fs.Bool("async", false, "Render tiles on the worker pool")
	flagWorkers = fs.Int("workers", 0, "Tile worker count")
	flagAssetDB = fs.String("db", "", "Asset database path")
	flagOutput = fs.String("out", "", "Directory for tile image copies")
	flagLogFile = fs.String("log", "", "Log file path")
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	if flagConfig == nil {
		return ""
	}
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if flagConfig == nil {
		return
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRenderer != "" {
		cfg.MapTile.Renderer = *flagRenderer
	}
	if *flagFormat != "" {
		cfg.MapTile.Format = *flagFormat
	}
	if *flagSize > 0 {
		cfg.MapTile.Size = *flagSize
	}
	if *flagAsync {
		cfg.MapTile.Async = true
	}
	if *flagWorkers > 0 {
		cfg.MapTile.Workers = *flagWorkers
	}
	if *flagAssetDB != "" {
		cfg.Storage.AssetDB = *flagAssetDB
	}
	if *flagOutput != "" {
		cfg.Storage.OutputDir = *flagOutput
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
