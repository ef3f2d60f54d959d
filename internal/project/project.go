// Package project persists terrain storages as a directory holding a YAML
// manifest, a binary region maps file and the layer texture files.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// File names inside a project directory.
const (
	ManifestFile = "terrain.yaml"
	MapsFile     = "maps.t3d"
)

// Project errors.
var (
	ErrManifestVersion = errors.New("unsupported manifest version")
	ErrMismatch        = errors.New("project files disagree")
	ErrExists          = errors.New("project already exists")
)

// Project is a terrain storage bound to a directory.
type Project struct {
	Dir     string
	Storage *terrain.Storage

	// NoiseTexture is the path of the noise overlay image, relative to Dir
	// unless absolute. Empty means no overlay.
	NoiseTexture string

	assets *assets.Manager
	log    *zap.Logger
}

// Option configures where a project finds its textures.
type Option func(*Project) error

// WithTextureDir adds a directory searched for textures missing from the
// project directory. Earlier options take priority.
func WithTextureDir(dir string) Option {
	return func(p *Project) error {
		p.AddTextureDir(dir)
		return nil
	}
}

// WithArchive adds a GRF archive searched for textures missing from every
// directory. Later archives take priority.
func WithArchive(path string) Option {
	return func(p *Project) error {
		return p.assets.AddArchive(path)
	}
}

func newProject(dir string, opts []Option) (*Project, error) {
	p := &Project{Dir: dir, assets: assets.NewManager(dir), log: logger.Named("project")}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.assets.Close()
			return nil, err
		}
	}
	return p, nil
}

// Create initializes a new project with a single region at the origin.
// It fails if dir already holds a manifest.
func Create(dir string, backend gpu.Backend, settings terrain.Settings, opts ...Option) (*Project, error) {
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	}
	p, err := newProject(dir, opts)
	if err != nil {
		return nil, err
	}
	if p.Storage, err = terrain.New(backend, settings); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.Storage.AddRegion(math.Vec3{}); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.Save(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Open loads a project into a new storage on backend.
func Open(dir string, backend gpu.Backend, opts ...Option) (*Project, error) {
	p, err := newProject(dir, opts)
	if err != nil {
		return nil, err
	}
	if err := p.load(backend); err != nil {
		p.Close()
		return nil, fmt.Errorf("opening project: %w", err)
	}
	p.log.Info("project opened",
		zap.String("dir", dir),
		zap.Int("regions", p.Storage.RegionCount()),
		zap.Int("layers", p.Storage.LayerCount()))
	return p, nil
}

func (p *Project) load(backend gpu.Backend) error {
	m, err := readManifest(p.path(ManifestFile))
	if err != nil {
		return err
	}
	size, err := terrain.ParseRegionSize(m.RegionSize)
	if err != nil {
		return err
	}

	snap := terrain.Snapshot{RegionSize: size, MaxHeight: m.MaxHeight}
	blob, err := formats.ParseT3DMFile(p.path(m.Maps))
	if err != nil {
		return err
	}
	if err := decodeMaps(blob, &snap); err != nil {
		return err
	}
	for i, lm := range m.Layers {
		l, err := p.loadLayer(lm)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		snap.Layers = append(snap.Layers, l)
	}

	p.Storage, err = terrain.New(backend, terrain.Settings{
		RegionSize:  size,
		MaxHeight:   m.MaxHeight,
		NoiseScale:  m.Noise.Scale,
		NoiseHeight: m.Noise.Height,
		NoiseFade:   m.Noise.Fade,
	})
	if err != nil {
		return err
	}
	if err := p.Storage.Restore(snap); err != nil {
		return err
	}
	if m.Noise.Texture != "" {
		return p.SetNoiseTexture(m.Noise.Texture)
	}
	return nil
}

// Save writes the manifest and maps file.
func (p *Project) Save() error {
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return err
	}

	st := p.Storage
	snap := st.Snapshot()
	blob, err := encodeMaps(snap)
	if err != nil {
		return fmt.Errorf("saving maps: %w", err)
	}
	if err := formats.WriteT3DMFile(p.path(MapsFile), blob); err != nil {
		return fmt.Errorf("saving maps: %w", err)
	}

	m := &Manifest{
		Version:    manifestVersion,
		RegionSize: int(snap.RegionSize),
		MaxHeight:  snap.MaxHeight,
		Maps:       MapsFile,
		Noise: NoiseManifest{
			Texture: p.NoiseTexture,
			Scale:   st.NoiseScale(),
			Height:  st.NoiseHeight(),
			Fade:    st.NoiseFade(),
		},
	}
	for _, l := range snap.Layers {
		m.Layers = append(m.Layers, layerManifest(l))
	}
	if err := writeManifest(p.path(ManifestFile), m); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}

	p.log.Info("project saved", zap.String("dir", p.Dir), zap.Int("regions", len(snap.Offsets)))
	return nil
}

// Close releases the storage and closes the texture archives.
func (p *Project) Close() {
	if p.Storage != nil {
		p.Storage.Close()
	}
	p.assets.Close()
}

// SetNoiseTexture loads an image as the noise overlay. An empty path removes it.
func (p *Project) SetNoiseTexture(path string) error {
	var img *texture.Image
	if path != "" {
		var err error
		if img, err = p.assets.Load(path); err != nil {
			return fmt.Errorf("loading noise texture: %w", err)
		}
	}
	if err := p.Storage.SetNoiseTexture(img); err != nil {
		return err
	}
	p.NoiseTexture = path
	return nil
}

// AddTextureDir adds a directory searched for texture files not found in the
// project directory.
func (p *Project) AddTextureDir(dir string) {
	p.assets.AddFallbackRoot(dir)
}

// LoadTexture reads a layer texture file and returns a reference keeping its path.
func (p *Project) LoadTexture(path string) (terrain.TextureRef, error) {
	if path == "" {
		return terrain.TextureRef{}, nil
	}
	img, err := p.assets.Load(path)
	if err != nil {
		return terrain.TextureRef{}, err
	}
	return terrain.TextureRef{Path: path, Image: img}, nil
}

func (p *Project) loadLayer(lm LayerManifest) (*terrain.Layer, error) {
	id, err := uuid.Parse(lm.ID)
	if err != nil {
		return nil, fmt.Errorf("layer id %q: %w", lm.ID, err)
	}
	l := terrain.NewLayer(lm.Name)
	l.ID = id
	l.SetAlbedo(lm.albedo())
	l.SetUVScale(lm.uvScale())

	albedo, err := p.LoadTexture(lm.AlbedoTexture)
	if err != nil {
		return nil, err
	}
	normal, err := p.LoadTexture(lm.NormalTexture)
	if err != nil {
		return nil, err
	}
	l.SetAlbedoTexture(albedo)
	l.SetNormalTexture(normal)
	return l, nil
}

// path resolves a project-relative path.
func (p *Project) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.Dir, name)
}
