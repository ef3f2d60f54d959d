// terrainctl is a CLI utility for editing terrain projects without a window.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/headless"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/project"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
	"github.com/Faultbox/midgard-terrain/pkg/grf"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Logs go to a file only, stdout belongs to command output.
	if path := os.Getenv("TERRAINCTL_LOG"); path != "" {
		if err := logger.InitWithFileConfig("debug", logger.DefaultFileConfig(path), false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "new":
		err = cmdNew(args)
	case "info":
		err = cmdInfo(args)
	case "add":
		err = cmdAdd(args)
	case "remove", "rm":
		err = cmdRemove(args)
	case "layer":
		err = cmdLayer(args)
	case "import-gnd":
		err = cmdImportGND(args)
	case "import-height":
		err = cmdImportHeight(args)
	case "bake":
		err = cmdBake(args)
	case "regionmap":
		err = cmdRegionMap(args)
	case "export":
		err = cmdExport(args)
	case "grf-list":
		err = cmdGRFList(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terrainctl - terrain project utility

Usage:
  terrainctl <command> [options]

Commands:
  new [-size N] [-height N] <dir>               Create a project with one region
  info <dir>                                    Show regions, layers and settings
  add <dir> <x> <z>                             Add the region covering a world position
  remove <dir> <x> <z>                          Remove the region covering a world position
  layer [-albedo f] [-normal f] [-uv s] [-at i] <dir> <name>
                                                Add or replace a material layer
  layer -remove <i> <dir>                       Remove a material layer
  import-gnd [-x N] [-z N] [-grf f] <dir> <file.gnd>
                                                Import ground altitudes into a region
  import-height [-x N] [-z N] <dir> <image>     Import a grayscale height image into a region
  bake <dir>                                    Build every GPU resource and report states
  regionmap <dir> <out.png>                     Export the region lookup map
  export <dir> <index> <height|control> <out.png>
                                                Export one region map as an image
  grf-list [-n N] <file.grf> [pattern]          List archive entries (e.g. "*.gnd")

Examples:
  terrainctl new -size 256 ./world
  terrainctl add ./world 256 0
  terrainctl layer -albedo grass.png ./world grass
  terrainctl import-gnd -x 256 ./world prontera.gnd
  terrainctl import-gnd -grf data.grf ./world data/prontera.gnd
  TERRAINCTL_LOG=terrainctl.log terrainctl bake ./world

Environment:
  TERRAINCTL_LOG       Write debug logs to this file
  TERRAINCTL_TEXTURES  Shared texture directories (path list)
  TERRAINCTL_GRF       GRF archives searched for textures (path list)`)
}

func usage(format string) error {
	return fmt.Errorf("usage: terrainctl %s", format)
}

// textureSources turns TERRAINCTL_TEXTURES and TERRAINCTL_GRF into project options.
func textureSources() []project.Option {
	var opts []project.Option
	for _, dir := range filepath.SplitList(os.Getenv("TERRAINCTL_TEXTURES")) {
		opts = append(opts, project.WithTextureDir(dir))
	}
	for _, path := range filepath.SplitList(os.Getenv("TERRAINCTL_GRF")) {
		opts = append(opts, project.WithArchive(path))
	}
	return opts
}

// open loads a project on the headless backend.
func open(dir string) (*project.Project, error) {
	return project.Open(dir, headless.New(), textureSources()...)
}

func parsePosition(xs, zs string) (math.Vec3, error) {
	x, err := strconv.ParseFloat(xs, 32)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	z, err := strconv.ParseFloat(zs, 32)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("invalid z %q: %w", zs, err)
	}
	return math.Vec3{X: float32(x), Z: float32(z)}, nil
}

func cmdNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	size := fs.Int("size", int(terrain.Size1024), "Region size (64..2048, power of two)")
	height := fs.Int("height", 512, "Maximum terrain height")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("new [-size N] [-height N] <dir>")
	}

	settings := terrain.DefaultSettings()
	rs, err := terrain.ParseRegionSize(*size)
	if err != nil {
		return err
	}
	settings.RegionSize = rs
	settings.MaxHeight = *height

	p, err := project.Create(fs.Arg(0), headless.New(), settings)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("Created %s (region size %d, max height %d)\n", p.Dir, rs, *height)
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return usage("info <dir>")
	}
	p, err := open(args[0])
	if err != nil {
		return err
	}
	defer p.Close()
	st := p.Storage

	fmt.Printf("Project:     %s\n", p.Dir)
	fmt.Printf("Region size: %d\n", st.RegionSize())
	fmt.Printf("Max height:  %d\n", st.MaxHeight())
	fmt.Printf("Noise:       scale %.2f height %.2f fade %.2f", st.NoiseScale(), st.NoiseHeight(), st.NoiseFade())
	if p.NoiseTexture != "" {
		fmt.Printf(" (%s)", p.NoiseTexture)
	}
	fmt.Println()
	fmt.Println()

	fmt.Printf("Regions (%d):\n", st.RegionCount())
	for i, o := range st.RegionOffsets() {
		w := terrain.WorldPosition(o, st.RegionSize())
		fmt.Printf("  %3d  offset %3d,%3d  world %.0f,%.0f\n", i, o.X, o.Y, w.X, w.Z)
	}
	fmt.Println()

	fmt.Printf("Layers (%d):\n", st.LayerCount())
	for i, l := range st.Layers() {
		fmt.Printf("  %3d  %-16s %s", i, l.Name, l.ID)
		if path := l.AlbedoTexture().Path; path != "" {
			fmt.Printf("  albedo=%s", path)
		}
		if path := l.NormalTexture().Path; path != "" {
			fmt.Printf("  normal=%s", path)
		}
		fmt.Println()
	}
	return nil
}

func cmdAdd(args []string) error {
	if len(args) < 3 {
		return usage("add <dir> <x> <z>")
	}
	return editRegions(args, func(st *terrain.Storage, pos math.Vec3) error {
		return st.AddRegion(pos)
	})
}

func cmdRemove(args []string) error {
	if len(args) < 3 {
		return usage("remove <dir> <x> <z>")
	}
	return editRegions(args, func(st *terrain.Storage, pos math.Vec3) error {
		if st.RegionCount() == 1 {
			fmt.Println("Keeping the last region")
		}
		return st.RemoveRegion(pos)
	})
}

func editRegions(args []string, edit func(*terrain.Storage, math.Vec3) error) error {
	pos, err := parsePosition(args[1], args[2])
	if err != nil {
		return err
	}
	p, err := open(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	if err := edit(p.Storage, pos); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("Regions: %d\n", p.Storage.RegionCount())
	return nil
}

func cmdLayer(args []string) error {
	fs := flag.NewFlagSet("layer", flag.ExitOnError)
	albedo := fs.String("albedo", "", "Albedo texture, relative to the project")
	normal := fs.String("normal", "", "Normal texture, relative to the project")
	uv := fs.Float64("uv", 1, "Uniform UV scale")
	at := fs.Int("at", -1, "Replace the layer at this index (default: append)")
	remove := fs.Int("remove", -1, "Remove the layer at this index")
	fs.Parse(args)

	if fs.NArg() < 1 || (*remove < 0 && fs.NArg() < 2) {
		return usage("layer [-albedo f] [-normal f] [-uv s] [-at i] <dir> <name>")
	}

	p, err := open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer p.Close()
	st := p.Storage

	if *remove >= 0 {
		if *remove >= st.LayerCount() {
			return fmt.Errorf("%w: layer %d of %d", terrain.ErrIndexOutOfRange, *remove, st.LayerCount())
		}
		if err := st.SetLayer(*remove, nil); err != nil {
			return err
		}
	} else {
		l := terrain.NewLayer(fs.Arg(1))
		l.SetUVScale(math.Vec3{X: float32(*uv), Y: float32(*uv), Z: float32(*uv)})
		ref, err := p.LoadTexture(*albedo)
		if err != nil {
			return err
		}
		l.SetAlbedoTexture(ref)
		if ref, err = p.LoadTexture(*normal); err != nil {
			return err
		}
		l.SetNormalTexture(ref)

		index := *at
		if index < 0 {
			index = st.LayerCount()
		}
		if err := st.SetLayer(index, l); err != nil {
			return err
		}
	}

	// Catch mismatched texture sizes before they reach a renderer.
	if err := st.UpdateLayers(); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("Layers: %d\n", st.LayerCount())
	return nil
}

func importFlags(fs *flag.FlagSet, args []string) math.Vec3 {
	x := fs.Float64("x", 0, "World X of the target region")
	z := fs.Float64("z", 0, "World Z of the target region")
	fs.Parse(args)
	return math.Vec3{X: float32(*x), Z: float32(*z)}
}

func cmdImportGND(args []string) error {
	fs := flag.NewFlagSet("import-gnd", flag.ExitOnError)
	archive := fs.String("grf", "", "Read the ground file from this GRF archive")
	pos := importFlags(fs, args)
	if fs.NArg() < 2 {
		return usage("import-gnd [-x N] [-z N] [-grf f] <dir> <file.gnd>")
	}

	gnd, err := readGND(*archive, fs.Arg(1))
	if err != nil {
		return err
	}
	p, err := open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer p.Close()

	if err := project.ImportGND(p.Storage, gnd, pos); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("Imported %dx%d ground (%s) into region at %.0f,%.0f\n", gnd.Width, gnd.Height, gnd.Version, pos.X, pos.Z)
	return nil
}

// readGND parses a ground file from disk, or from a GRF archive when one is given.
func readGND(archive, path string) (*formats.GND, error) {
	if archive == "" {
		return formats.ParseGNDFile(path)
	}
	a, err := grf.Open(archive)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	data, err := a.Read(path)
	if err != nil {
		return nil, err
	}
	return formats.ParseGND(data)
}

func cmdImportHeight(args []string) error {
	fs := flag.NewFlagSet("import-height", flag.ExitOnError)
	pos := importFlags(fs, args)
	if fs.NArg() < 2 {
		return usage("import-height [-x N] [-z N] <dir> <image>")
	}

	p, err := open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer p.Close()

	ref, err := p.LoadTexture(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := project.ImportHeightImage(p.Storage, ref.Image, pos); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("Imported %dx%d height image into region at %.0f,%.0f\n", ref.Image.Width, ref.Image.Height, pos.X, pos.Z)
	return nil
}

func cmdBake(args []string) error {
	if len(args) < 1 {
		return usage("bake <dir>")
	}
	backend := headless.New()
	p, err := project.Open(args[0], backend, textureSources()...)
	if err != nil {
		return err
	}
	defer p.Close()
	st := p.Storage

	updateErr := st.Update()

	fmt.Printf("%-16s %-6s %-6s %s\n", "RESOURCE", "STATE", "BUILDS", "SIZE")
	for _, r := range terrain.Resources {
		size := "-"
		if res, ok := backend.Resource(st.ResourceHandle(r)); ok {
			size = fmt.Sprintf("%dx%dx%d %s", res.Width, res.Height, res.Layers, res.Format)
		}
		fmt.Printf("%-16s %-6s %-6d %s\n", r, st.ResourceState(r), st.BuildCount(r), size)
	}
	stats := backend.Stats()
	fmt.Printf("\nLive handles: %d  textures: %d  arrays: %d\n", backend.Live(), stats.TextureCreates, stats.TextureLayeredCreates)
	return updateErr
}

func cmdRegionMap(args []string) error {
	if len(args) < 2 {
		return usage("regionmap <dir> <out.png>")
	}
	p, err := open(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	rm, err := terrain.EncodeRegionMap(p.Storage.RegionOffsets(), terrain.RegionMapSize)
	if err != nil {
		return err
	}
	if err := debug.WritePNG(args[1], debug.ToImage(rm)); err != nil {
		return err
	}
	fmt.Printf("Wrote %dx%d region map to %s\n", rm.Width, rm.Height, args[1])
	return nil
}

func cmdExport(args []string) error {
	if len(args) < 4 {
		return usage("export <dir> <index> <height|control> <out.png>")
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[1], err)
	}
	t, err := terrain.ParseMapType(args[2])
	if err != nil {
		return err
	}
	p, err := open(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	img, err := p.Storage.Map(index, t)
	if err != nil {
		return err
	}
	if err := debug.WritePNG(args[3], debug.ToImage(img)); err != nil {
		return err
	}
	fmt.Printf("Wrote %s map of region %d to %s\n", t, index, args[3])
	return nil
}
