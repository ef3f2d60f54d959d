// Package gpu defines the resource backend the terrain storage talks to.
//
// Implementations: glbackend (OpenGL 4.1) and headless (in-memory, for tests
// and tools). All calls return immediately; upload latency is the backend's concern.
package gpu

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// Handle identifies a backend resource. The zero Handle is "no resource".
type Handle uint64

// Valid reports whether h refers to a resource.
func (h Handle) Valid() bool {
	return h != 0
}

// Backend creates and releases GPU resources and material parameters.
//
// MaterialSetParam accepts float32, int32, Handle, []math.Vec3,
// []texture.Color and math.Mat4 values. Unknown names are ignored.
type Backend interface {
	// TextureCreate uploads a single 2D texture.
	TextureCreate(img *texture.Image) (Handle, error)
	// TextureLayeredCreate uploads a 2D array texture, one layer per image.
	// All images must share size and format.
	TextureLayeredCreate(layers []*texture.Image) (Handle, error)

	MaterialCreate() (Handle, error)
	ShaderCreate() (Handle, error)
	ShaderSetCode(sh Handle, src shader.Source) error
	MaterialSetShader(material, sh Handle)
	MaterialSetParam(material Handle, name string, value any)

	// Free releases a resource. Freeing the zero Handle is a no-op.
	Free(h Handle)
}

// Errors shared by backend implementations.
var (
	ErrNoLayers      = errors.New("layered texture needs at least one image")
	ErrLayerMismatch = errors.New("layered texture images differ in size or format")
	ErrNilImage      = errors.New("nil image")
	ErrUnknownHandle = errors.New("unknown handle")
	ErrEmptySource   = errors.New("empty shader source")
)

// ValidateLayers checks that an array texture request is non-empty and that
// every layer has the shape of the first.
func ValidateLayers(layers []*texture.Image) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	for i, img := range layers {
		if img == nil {
			return fmt.Errorf("layer %d: %w", i, ErrNilImage)
		}
		if !img.SameShape(layers[0]) {
			return fmt.Errorf("layer %d: %w", i, ErrLayerMismatch)
		}
	}
	return nil
}
