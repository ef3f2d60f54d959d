package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/terrain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Window.Height)
	}
	if cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Terrain.RegionSize != 1024 {
		t.Errorf("expected region size 1024, got %d", cfg.Terrain.RegionSize)
	}
	if cfg.Terrain.MaxHeight != 512 {
		t.Errorf("expected max height 512, got %d", cfg.Terrain.MaxHeight)
	}
	if cfg.Terrain.Noise.Fade != 5 {
		t.Errorf("expected noise fade 5, got %f", cfg.Terrain.Noise.Fade)
	}

	if cfg.Data.ProjectDir != "terrain" {
		t.Errorf("expected project dir 'terrain', got %s", cfg.Data.ProjectDir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestTerrainSettings(t *testing.T) {
	cfg := Default()
	settings, err := cfg.Terrain.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings != terrain.DefaultSettings() {
		t.Errorf("default settings = %+v, want %+v", settings, terrain.DefaultSettings())
	}

	cfg.Terrain.RegionSize = 1000
	if _, err := cfg.Terrain.Settings(); !errors.Is(err, terrain.ErrInvalidRegionSize) {
		t.Errorf("expected ErrInvalidRegionSize, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

terrain:
  region_size: 256
  max_height: 128
  noise:
    texture: "noise.png"
    scale: 2.5

camera:
  fov: 75

data:
  project_dir: "/srv/maps/prontera"

logging:
  level: "debug"
  log_file: "terrain.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if !cfg.Window.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Window.VSync {
		t.Error("expected vsync to be false")
	}

	if cfg.Terrain.RegionSize != 256 {
		t.Errorf("expected region size 256, got %d", cfg.Terrain.RegionSize)
	}
	if cfg.Terrain.MaxHeight != 128 {
		t.Errorf("expected max height 128, got %d", cfg.Terrain.MaxHeight)
	}
	if cfg.Terrain.Noise.Texture != "noise.png" || cfg.Terrain.Noise.Scale != 2.5 {
		t.Errorf("unexpected noise config %+v", cfg.Terrain.Noise)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Terrain.Noise.Height != 0.5 {
		t.Errorf("expected default noise height 0.5, got %f", cfg.Terrain.Noise.Height)
	}
	if cfg.Camera.FOV != 75 || cfg.Camera.MoveSpeed != 400 {
		t.Errorf("unexpected camera config %+v", cfg.Camera)
	}

	if cfg.Data.ProjectDir != "/srv/maps/prontera" {
		t.Errorf("expected project dir from file, got %s", cfg.Data.ProjectDir)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("expected log file 'terrain.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "terrainview.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != "terrainview.yaml" {
		t.Errorf("expected terrainview.yaml in current directory, got %q", path)
	}

	t.Setenv(EnvConfig, "/etc/terrain.yaml")
	if path := findConfigFile(); path != "/etc/terrain.yaml" {
		t.Errorf("expected path from %s, got %q", EnvConfig, path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "project flag",
			setup: func() { *flagProject = "maps/geffen" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Data.ProjectDir != "maps/geffen" {
					t.Errorf("expected project dir maps/geffen, got %s", cfg.Data.ProjectDir)
				}
			},
			teardown: func() { *flagProject = "" },
		},
		{
			name:  "region size flag",
			setup: func() { *flagRegionSize = 512 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.RegionSize != 512 {
					t.Errorf("expected region size 512, got %d", cfg.Terrain.RegionSize)
				}
			},
			teardown: func() { *flagRegionSize = 0 },
		},
		{
			name:  "max height flag",
			setup: func() { *flagMaxHeight = 64 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.MaxHeight != 64 {
					t.Errorf("expected max height 64, got %d", cfg.Terrain.MaxHeight)
				}
			},
			teardown: func() { *flagMaxHeight = 0 },
		},
		{
			name: "path list flags go first",
			setup: func() {
				flagTextureDirs = pathList{"shared"}
				flagGRFPaths = pathList{"data.grf", "rdata.grf"}
			},
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg.Data.TextureDirs, []string{"shared", "file-textures"}) {
					t.Errorf("texture dirs = %v", cfg.Data.TextureDirs)
				}
				if !reflect.DeepEqual(cfg.Data.GRFPaths, []string{"data.grf", "rdata.grf"}) {
					t.Errorf("grf paths = %v", cfg.Data.GRFPaths)
				}
			},
			teardown: func() {
				flagTextureDirs = nil
				flagGRFPaths = nil
			},
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			cfg.Data.TextureDirs = []string{"file-textures"}
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
terrain:
  region_size: 128
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width comes from the flag, height and region size from the file.
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
	if cfg.Terrain.RegionSize != 128 {
		t.Errorf("expected region size 128 from file, got %d", cfg.Terrain.RegionSize)
	}
}

func TestLoadRejectsInvalidRegionSize(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  region_size: 100\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, terrain.ErrInvalidRegionSize) {
		t.Errorf("expected ErrInvalidRegionSize, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Terrain.RegionSize = 2048
	cfg.Data.ProjectDir = "out"
	cfg.Data.GRFPaths = []string{"data.grf"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("terrain:\n  regoin_size: 256\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error for misspelled key")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("empty file changed the defaults")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"max height", func(c *Config) { c.Terrain.MaxHeight = 2000 }, terrain.ErrInvalidMaxHeight},
		{"window", func(c *Config) { c.Window.Width = 0 }, ErrInvalid},
		{"fov", func(c *Config) { c.Camera.FOV = 180 }, ErrInvalid},
		{"latitude", func(c *Config) { c.Light.Latitude = -91 }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
