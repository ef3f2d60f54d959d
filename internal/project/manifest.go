package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// manifestVersion is bumped on incompatible manifest changes.
const manifestVersion = 1

// Manifest is the YAML description of a project. Region data lives in the
// binary maps file it names.
type Manifest struct {
	Version    int             `yaml:"version"`
	RegionSize int             `yaml:"region_size"`
	MaxHeight  int             `yaml:"max_height"`
	Maps       string          `yaml:"maps"`
	Noise      NoiseManifest   `yaml:"noise"`
	Layers     []LayerManifest `yaml:"layers"`
}

// NoiseManifest holds the noise overlay settings.
type NoiseManifest struct {
	Texture string  `yaml:"texture,omitempty"`
	Scale   float32 `yaml:"scale"`
	Height  float32 `yaml:"height"`
	Fade    float32 `yaml:"fade"`
}

// LayerManifest describes one material layer.
type LayerManifest struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name"`
	Albedo        [4]float32 `yaml:"albedo,flow"`
	UVScale       [3]float32 `yaml:"uv_scale,flow"`
	AlbedoTexture string     `yaml:"albedo_texture,omitempty"`
	NormalTexture string     `yaml:"normal_texture,omitempty"`
}

func layerManifest(l *terrain.Layer) LayerManifest {
	c, s := l.Albedo(), l.UVScale()
	return LayerManifest{
		ID:            l.ID.String(),
		Name:          l.Name,
		Albedo:        [4]float32{c.R, c.G, c.B, c.A},
		UVScale:       [3]float32{s.X, s.Y, s.Z},
		AlbedoTexture: l.AlbedoTexture().Path,
		NormalTexture: l.NormalTexture().Path,
	}
}

func (m LayerManifest) albedo() texture.Color {
	return texture.Color{R: m.Albedo[0], G: m.Albedo[1], B: m.Albedo[2], A: m.Albedo[3]}
}

func (m LayerManifest) uvScale() math.Vec3 {
	return math.Vec3{X: m.UVScale[0], Y: m.UVScale[1], Z: m.UVScale[2]}
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("%w: %s has version %d, want %d", ErrManifestVersion, path, m.Version, manifestVersion)
	}
	return &m, nil
}

func writeManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
