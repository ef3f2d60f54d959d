package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// Resource identifies one of the derived GPU resources.
type Resource int

// Derived resources.
const (
	ResourceRegionMap Resource = iota
	ResourceHeightMaps
	ResourceControlMaps
	ResourceAlbedoTextures
	ResourceNormalTextures

	resourceCount
)

// Resources lists every derived resource.
var Resources = []Resource{
	ResourceRegionMap,
	ResourceHeightMaps,
	ResourceControlMaps,
	ResourceAlbedoTextures,
	ResourceNormalTextures,
}

// String returns the resource name.
func (r Resource) String() string {
	switch r {
	case ResourceRegionMap:
		return "region_map"
	case ResourceHeightMaps:
		return "height_maps"
	case ResourceControlMaps:
		return "control_maps"
	case ResourceAlbedoTextures:
		return "albedo_textures"
	case ResourceNormalTextures:
		return "normal_textures"
	}
	return fmt.Sprintf("Resource(%d)", int(r))
}

// State is the lifecycle state of a derived resource.
type State int

const (
	// StateEmpty means never built, or built from an empty source. No handle.
	StateEmpty State = iota
	// StateDirty means the handle, if any, does not reflect current inputs.
	StateDirty
	// StateClean means the handle reflects current inputs.
	StateClean
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDirty:
		return "dirty"
	case StateClean:
		return "clean"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// generated is a derived resource gated by a dirty flag.
type generated struct {
	handle gpu.Handle
	dirty  bool
	image  *texture.Image // source of single-image resources
	builds int
}

func (g *generated) state() State {
	switch {
	case g.dirty:
		return StateDirty
	case !g.handle.Valid():
		return StateEmpty
	}
	return StateClean
}

func (g *generated) release(b gpu.Backend) {
	if g.handle.Valid() {
		b.Free(g.handle)
	}
	g.handle = 0
	g.image = nil
}

// invalidate releases the handle and schedules a rebuild.
func (g *generated) invalidate(b gpu.Backend) {
	g.release(b)
	g.dirty = true
}

// clear releases the handle and forgets the pending rebuild.
func (g *generated) clear(b gpu.Backend) {
	g.release(b)
	g.dirty = false
}

// createLayered builds an array texture, one layer per image. An empty list
// leaves the resource empty. On backend failure the resource stays dirty.
func (g *generated) createLayered(b gpu.Backend, layers []*texture.Image) error {
	if len(layers) == 0 {
		g.clear(b)
		return nil
	}
	h, err := b.TextureLayeredCreate(layers)
	if err != nil {
		g.dirty = true
		return err
	}
	g.release(b)
	g.handle = h
	g.dirty = false
	g.builds++
	return nil
}

// create builds a single 2D texture and keeps img as its source.
func (g *generated) create(b gpu.Backend, img *texture.Image) error {
	h, err := b.TextureCreate(img)
	if err != nil {
		g.dirty = true
		return err
	}
	g.release(b)
	g.handle = h
	g.image = img
	g.dirty = false
	g.builds++
	return nil
}
