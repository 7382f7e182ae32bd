// regiontile generates region terrain and renders world map tiles.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/regiontile/internal/config"
	"github.com/Faultbox/regiontile/internal/scene"
	"github.com/Faultbox/regiontile/internal/terrain"
	"github.com/Faultbox/regiontile/internal/terrain/generator"
	"github.com/Faultbox/regiontile/internal/texture"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "info":
		cmdInfo(args)
	case "render":
		cmdRender(args)
	case "batch":
		cmdBatch(args)
	case "texture", "tex":
		cmdTexture(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`regiontile - region terrain and map tile pipeline

Usage:
  regiontile <command> [options]

Commands:
  generate [options] <out.terrain>   Generate a heightfield from a preset
  info [-water h] <file.terrain>     Show heightfield statistics
  render [options] <scene.yaml>      Render and store the tiles of a scene
  batch [options] <scene.yaml>...    Render several scenes concurrently
  texture [options] <image>          Store an image as a texture asset
  config [options] [-save path]      Print the resolved configuration

Presets: %s

Examples:
  regiontile generate -preset island -max 40 -seed 7 island.terrain
  regiontile info island.terrain
  regiontile render -renderer warp3d -out tiles harbor.yaml
  regiontile batch -workers 4 regions/*.yaml
`, strings.Join(generator.Presets(), ", "))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	preset := fs.String("preset", "mainland", "Terrain preset")
	size := fs.Int("size", 256, "Region size in meters")
	minH := fs.Float64("min", 0, "Minimum elevation")
	maxH := fs.Float64("max", 60, "Maximum elevation")
	smoothing := fs.Int("smooth", 2, "Smoothing passes")
	seed := fs.Uint64("seed", 0, "Noise seed (0 = random)")
	water := fs.Float64("water", 20, "Water height")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: regiontile generate [options] <out.terrain>")
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	region := scene.DefaultRegion(strings.TrimSuffix(filepath.Base(fs.Arg(0)), filepath.Ext(fs.Arg(0))))
	region.SizeX, region.SizeY = *size, *size
	region.WaterHeight = *water

	hf := generator.New(*seed).Generate(*preset, *minH, *maxH, *smoothing, &region)
	if err := hf.SaveFile(fs.Arg(0)); err != nil {
		fail(err)
	}

	lo, hi := hf.MinMax()
	fmt.Printf("Wrote:     %s\n", fs.Arg(0))
	fmt.Printf("Preset:    %s (seed %d)\n", generator.ParsePreset(*preset), *seed)
	fmt.Printf("Size:      %dx%d\n", hf.Width(), hf.Height())
	fmt.Printf("Elevation: %.2f .. %.2f\n", lo, hi)
	fmt.Printf("Land area: %d m²\n", region.LandArea)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	water := fs.Float64("water", 20, "Water height")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: regiontile info [-water h] <file.terrain>")
		os.Exit(1)
	}

	hf, err := terrain.LoadFile(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	lo, hi := hf.MinMax()
	land := hf.LandArea(*water)
	total := hf.Width() * hf.Height()

	fmt.Printf("File:      %s\n", fs.Arg(0))
	fmt.Printf("Size:      %dx%d\n", hf.Width(), hf.Height())
	fmt.Printf("Elevation: %.2f .. %.2f\n", lo, hi)
	fmt.Printf("Land area: %d m² (%.1f%% above %.1f)\n", land, 100*float64(land)/float64(total), *water)
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	p, err := openPipeline(fs, args)
	if err != nil {
		fail(err)
	}
	defer p.Close()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: regiontile render [options] <scene.yaml>")
		os.Exit(1)
	}

	res, err := p.renderScene(p.ctx, fs.Arg(0))
	if err != nil {
		fail(err)
	}
	printResult(res)
}

func cmdBatch(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	p, err := openPipeline(fs, args)
	if err != nil {
		fail(err)
	}
	defer p.Close()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: regiontile batch [options] <scene.yaml>...")
		os.Exit(1)
	}

	results, err := p.renderBatch(fs.Args())
	for _, res := range results {
		printResult(res)
	}
	if err != nil {
		fail(err)
	}
	fmt.Printf("Rendered %d regions\n", len(results))
}

func cmdTexture(args []string) {
	fs := flag.NewFlagSet("texture", flag.ExitOnError)
	p, err := openPipeline(fs, args)
	if err != nil {
		fail(err)
	}
	defer p.Close()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: regiontile texture [options] <image>")
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	format := texture.Format(data)
	if format == "" {
		fail(fmt.Errorf("%s: %w", fs.Arg(0), texture.ErrUnsupportedFormat))
	}
	id, err := p.storeTexture(filepath.Base(fs.Arg(0)), format, data)
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s  %s (%s, %d bytes)\n", id, fs.Arg(0), format, len(data))
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.String("save", "", "Write the resolved config to this path")
	user := fs.Bool("user", false, "Write the resolved config to the user config directory")
	config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	switch {
	case *save != "":
		err = cfg.SaveTo(*save)
	case *user:
		err = cfg.Save()
	default:
		var data []byte
		if data, err = cfg.Marshal(); err == nil {
			_, err = os.Stdout.Write(data)
		}
		if err != nil {
			fail(err)
		}
		return
	}
	if err != nil {
		fail(err)
	}
	fmt.Println("Saved configuration")
}
