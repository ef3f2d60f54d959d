package config

import (
	"flag"
	"strings"
)

// pathList is a repeatable path flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

var (
	flagConfig     = flag.String("config", "", "Path to config file (default $"+EnvConfig+" or search)")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagProject    = flag.String("project", "", "Terrain project directory")
	flagRegionSize = flag.Int("region-size", 0, "Region size for new projects (64..2048)")
	flagMaxHeight  = flag.Int("max-height", 0, "Max height for new projects (1..1024)")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")

	flagTextureDirs pathList
	flagGRFPaths    pathList
)

func init() {
	flag.Var(&flagTextureDirs, "texture-dir", "Extra layer texture directory (repeatable)")
	flag.Var(&flagGRFPaths, "grf", "GRF archive searched for layer textures (repeatable)")
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config. Path lists given on
// the command line are searched before the ones from the file.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagProject != "" {
		cfg.Data.ProjectDir = *flagProject
	}
	if *flagRegionSize > 0 {
		cfg.Terrain.RegionSize = *flagRegionSize
	}
	if *flagMaxHeight > 0 {
		cfg.Terrain.MaxHeight = *flagMaxHeight
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if len(flagTextureDirs) > 0 {
		cfg.Data.TextureDirs = append(append([]string(nil), flagTextureDirs...), cfg.Data.TextureDirs...)
	}
	if len(flagGRFPaths) > 0 {
		cfg.Data.GRFPaths = append(append([]string(nil), flagGRFPaths...), cfg.Data.GRFPaths...)
	}
}
