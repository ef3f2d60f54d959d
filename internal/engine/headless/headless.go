// Package headless provides an in-memory gpu.Backend. It allocates handles,
// tracks which are live, and records material parameters, which makes it the
// test double for the terrain storage and the backend of the CLI tools.
package headless

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// Kind is the type of a live resource.
type Kind int

// Resource kinds.
const (
	KindTexture Kind = iota
	KindTextureArray
	KindMaterial
	KindShader
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindTextureArray:
		return "texture_array"
	case KindMaterial:
		return "material"
	case KindShader:
		return "shader"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Resource is the recorded state of a live handle.
type Resource struct {
	Kind   Kind
	Width  int
	Height int
	Layers int
	Format texture.Format

	// Images holds copies of the uploaded data (textures and arrays).
	Images []*texture.Image

	// Shader state
	Source shader.Source

	// Material state
	Shader gpu.Handle
	Params map[string]any
}

// Stats counts backend calls.
type Stats struct {
	TextureCreates        int
	TextureLayeredCreates int
	Frees                 int
	// DoubleFrees counts Free calls on handles that were not live.
	DoubleFrees int
}

// Backend is an in-memory gpu.Backend.
type Backend struct {
	next  gpu.Handle
	live  map[gpu.Handle]*Resource
	stats Stats

	// FailUploads makes every texture creation fail with this error.
	FailUploads error
}

var _ gpu.Backend = (*Backend)(nil)

// New creates an empty backend.
func New() *Backend {
	return &Backend{live: make(map[gpu.Handle]*Resource)}
}

func (b *Backend) alloc(r *Resource) gpu.Handle {
	b.next++
	b.live[b.next] = r
	return b.next
}

// TextureCreate records a 2D texture.
func (b *Backend) TextureCreate(img *texture.Image) (gpu.Handle, error) {
	if b.FailUploads != nil {
		return 0, b.FailUploads
	}
	if img == nil {
		return 0, gpu.ErrNilImage
	}
	b.stats.TextureCreates++
	return b.alloc(&Resource{
		Kind:   KindTexture,
		Width:  img.Width,
		Height: img.Height,
		Layers: 1,
		Format: img.Format,
		Images: []*texture.Image{img.Clone()},
	}), nil
}

// TextureLayeredCreate records a 2D array texture.
func (b *Backend) TextureLayeredCreate(layers []*texture.Image) (gpu.Handle, error) {
	if b.FailUploads != nil {
		return 0, b.FailUploads
	}
	if err := gpu.ValidateLayers(layers); err != nil {
		return 0, err
	}
	images := make([]*texture.Image, len(layers))
	for i, img := range layers {
		images[i] = img.Clone()
	}
	b.stats.TextureLayeredCreates++
	return b.alloc(&Resource{
		Kind:   KindTextureArray,
		Width:  layers[0].Width,
		Height: layers[0].Height,
		Layers: len(layers),
		Format: layers[0].Format,
		Images: images,
	}), nil
}

// MaterialCreate records a material with no parameters.
func (b *Backend) MaterialCreate() (gpu.Handle, error) {
	return b.alloc(&Resource{Kind: KindMaterial, Params: make(map[string]any)}), nil
}

// ShaderCreate records a shader with no code.
func (b *Backend) ShaderCreate() (gpu.Handle, error) {
	return b.alloc(&Resource{Kind: KindShader}), nil
}

// ShaderSetCode stores the source of a shader.
func (b *Backend) ShaderSetCode(sh gpu.Handle, src shader.Source) error {
	r, ok := b.live[sh]
	if !ok || r.Kind != KindShader {
		return fmt.Errorf("shader %d: %w", sh, gpu.ErrUnknownHandle)
	}
	if src.Vertex == "" || src.Fragment == "" {
		return gpu.ErrEmptySource
	}
	r.Source = src
	return nil
}

// MaterialSetShader binds a shader to a material.
func (b *Backend) MaterialSetShader(material, sh gpu.Handle) {
	if r, ok := b.live[material]; ok && r.Kind == KindMaterial {
		r.Shader = sh
	}
}

// MaterialSetParam stores a material parameter.
func (b *Backend) MaterialSetParam(material gpu.Handle, name string, value any) {
	if r, ok := b.live[material]; ok && r.Kind == KindMaterial {
		r.Params[name] = value
	}
}

// Free releases a handle.
func (b *Backend) Free(h gpu.Handle) {
	if !h.Valid() {
		return
	}
	if _, ok := b.live[h]; !ok {
		b.stats.DoubleFrees++
		return
	}
	delete(b.live, h)
	b.stats.Frees++
}

// Resource returns the recorded state of a live handle.
func (b *Backend) Resource(h gpu.Handle) (*Resource, bool) {
	r, ok := b.live[h]
	return r, ok
}

// Param returns a material parameter.
func (b *Backend) Param(material gpu.Handle, name string) (any, bool) {
	r, ok := b.live[material]
	if !ok || r.Kind != KindMaterial {
		return nil, false
	}
	v, ok := r.Params[name]
	return v, ok
}

// Live returns the number of live handles.
func (b *Backend) Live() int {
	return len(b.live)
}

// Stats returns the call counters.
func (b *Backend) Stats() Stats {
	return b.stats
}
