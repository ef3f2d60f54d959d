// Package config handles terrain tool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

// ErrInvalid is returned by Validate for out-of-range viewer settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer and tool settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Terrain TerrainConfig `yaml:"terrain"`
	Camera  CameraConfig  `yaml:"camera"`
	Light   LightConfig   `yaml:"light"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// TerrainConfig holds the storage settings used for new projects.
type TerrainConfig struct {
	RegionSize int         `yaml:"region_size"`
	MaxHeight  int         `yaml:"max_height"`
	Noise      NoiseConfig `yaml:"noise"`
}

// NoiseConfig holds the noise overlay settings.
type NoiseConfig struct {
	Texture string  `yaml:"texture"` // optional image path
	Scale   float32 `yaml:"scale"`
	Height  float32 `yaml:"height"`
	Fade    float32 `yaml:"fade"`
}

// CameraConfig holds viewer camera settings.
type CameraConfig struct {
	FOV       float32 `yaml:"fov"` // degrees
	MoveSpeed float32 `yaml:"move_speed"`
}

// LightConfig holds the sun position of the viewer, in degrees.
type LightConfig struct {
	Longitude float32 `yaml:"longitude"`
	Latitude  float32 `yaml:"latitude"`
}

// DataConfig holds data paths.
type DataConfig struct {
	ProjectDir  string   `yaml:"project_dir"`
	TextureDirs []string `yaml:"texture_dirs,omitempty"` // searched for layer textures after the project
	GRFPaths    []string `yaml:"grf_paths,omitempty"`    // GRF archives searched after every directory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	defaults := terrain.DefaultSettings()
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Terrain: TerrainConfig{
			RegionSize: int(defaults.RegionSize),
			MaxHeight:  defaults.MaxHeight,
			Noise: NoiseConfig{
				Scale:  defaults.NoiseScale,
				Height: defaults.NoiseHeight,
				Fade:   defaults.NoiseFade,
			},
		},
		Camera: CameraConfig{
			FOV:       60,
			MoveSpeed: 400,
		},
		Light: LightConfig{
			Longitude: 45,
			Latitude:  50,
		},
		Data: DataConfig{
			ProjectDir: "terrain",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Settings converts the terrain section to storage settings.
func (t TerrainConfig) Settings() (terrain.Settings, error) {
	size, err := terrain.ParseRegionSize(t.RegionSize)
	if err != nil {
		return terrain.Settings{}, fmt.Errorf("terrain.region_size: %w", err)
	}
	return terrain.Settings{
		RegionSize:  size,
		MaxHeight:   t.MaxHeight,
		NoiseScale:  t.Noise.Scale,
		NoiseHeight: t.Noise.Height,
		NoiseFade:   t.Noise.Fade,
	}, nil
}

// Validate checks the settings Load cannot repair.
func (c *Config) Validate() error {
	settings, err := c.Terrain.Settings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("terrain: %w", err)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera.fov %g", ErrInvalid, c.Camera.FOV)
	}
	if c.Light.Latitude < -90 || c.Light.Latitude > 90 {
		return fmt.Errorf("%w: light.latitude %g", ErrInvalid, c.Light.Latitude)
	}
	return nil
}
