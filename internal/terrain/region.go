package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// RegionSize is the edge length of a region in pixels and world units.
type RegionSize int

// Allowed region sizes.
const (
	Size64   RegionSize = 64
	Size128  RegionSize = 128
	Size256  RegionSize = 256
	Size512  RegionSize = 512
	Size1024 RegionSize = 1024
	Size2048 RegionSize = 2048
)

// Valid reports whether s is one of the allowed sizes.
func (s RegionSize) Valid() bool {
	switch s {
	case Size64, Size128, Size256, Size512, Size1024, Size2048:
		return true
	}
	return false
}

// ParseRegionSize converts an integer to a RegionSize.
func ParseRegionSize(n int) (RegionSize, error) {
	s := RegionSize(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRegionSize, n)
	}
	return s, nil
}

// MapType selects a per-region data category.
type MapType int

// Map categories. MapColor is reserved and carries no data.
const (
	MapHeight MapType = iota
	MapControl
	MapColor
	MapAll
)

// String returns the category name.
func (t MapType) String() string {
	switch t {
	case MapHeight:
		return "height"
	case MapControl:
		return "control"
	case MapColor:
		return "color"
	case MapAll:
		return "all"
	}
	return fmt.Sprintf("MapType(%d)", int(t))
}

// ParseMapType converts a category name to a MapType.
func ParseMapType(name string) (MapType, error) {
	for t := MapHeight; t <= MapAll; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMap, name)
}

const (
	// RegionMapSize is the edge length of the region lookup grid.
	RegionMapSize = 16
	// MaxRegions is the largest region count the 8-bit region map can index.
	MaxRegions = 255
	// NoRegion is returned by RegionIndex when no region covers a position.
	NoRegion = -1
)

// OffsetOf snaps a world position to its region grid offset.
func OffsetOf(pos math.Vec3, size RegionSize) math.Vec2i {
	return pos.XZ().Scale(1 / float32(size)).Add(math.Vec2{X: 0.5, Y: 0.5}).Floor()
}

// WorldPosition returns the world position of a region offset, the inverse of OffsetOf.
func WorldPosition(offset math.Vec2i, size RegionSize) math.Vec3 {
	return math.Vec3{X: float32(offset.X) * float32(size), Z: float32(offset.Y) * float32(size)}
}

// InRegionMap reports whether an offset has a cell in the region map.
func InRegionMap(offset math.Vec2i) bool {
	const half = RegionMapSize / 2
	return offset.X >= -half && offset.X < half && offset.Y >= -half && offset.Y < half
}

// regionIndex keeps region offsets in slot order.
type regionIndex struct {
	offsets []math.Vec2i
}

func (ix *regionIndex) find(offset math.Vec2i) int {
	for i, o := range ix.offsets {
		if o == offset {
			return i
		}
	}
	return NoRegion
}

func (ix *regionIndex) count() int {
	return len(ix.offsets)
}

// validateOffsets checks a full offset list for duplicates, capacity and bounds.
func validateOffsets(offsets []math.Vec2i) error {
	if len(offsets) > MaxRegions {
		return fmt.Errorf("%w: %d regions, max %d", ErrCapacityExceeded, len(offsets), MaxRegions)
	}
	seen := make(map[math.Vec2i]struct{}, len(offsets))
	for _, o := range offsets {
		if !InRegionMap(o) {
			return fmt.Errorf("%w: %v", ErrOutOfBounds, o)
		}
		if _, dup := seen[o]; dup {
			return fmt.Errorf("%w: duplicate offset %v", ErrRegionExists, o)
		}
		seen[o] = struct{}{}
	}
	return nil
}

// regionStore owns the per-region grids, in the same order as regionIndex.
type regionStore struct {
	heights  []*texture.Image
	controls []*texture.Image
}

func (rs *regionStore) list(t MapType) []*texture.Image {
	if t == MapControl {
		return rs.controls
	}
	return rs.heights
}

func (rs *regionStore) removeAt(i int) {
	rs.heights = removeMap(rs.heights, i)
	rs.controls = removeMap(rs.controls, i)
}

func removeMap(maps []*texture.Image, i int) []*texture.Image {
	return append(maps[:i], maps[i+1:]...)
}

// newRegionMaps creates the empty grids of a new region.
func newRegionMaps(size RegionSize) (height, control *texture.Image, err error) {
	empty := texture.Color{A: 1}
	if height, err = texture.New(int(size), int(size), texture.FormatRF); err != nil {
		return nil, nil, err
	}
	if control, err = texture.New(int(size), int(size), texture.FormatRGBA8); err != nil {
		return nil, nil, err
	}
	height.Fill(empty)
	control.Fill(empty)
	return height, control, nil
}

func mapFormat(t MapType) texture.Format {
	if t == MapControl {
		return texture.FormatRGBA8
	}
	return texture.FormatRF
}

func copyMaps(maps []*texture.Image) []*texture.Image {
	out := make([]*texture.Image, len(maps))
	for i, m := range maps {
		out[i] = m.Clone()
	}
	return out
}
