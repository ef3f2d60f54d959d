package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Snapshot is the persisted state of a Storage. Derived resources are not
// part of it and are rebuilt after Restore.
type Snapshot struct {
	RegionSize  RegionSize
	MaxHeight   int
	Offsets     []math.Vec2i
	HeightMaps  []*texture.Image
	ControlMaps []*texture.Image
	Layers      []*Layer
}

// Snapshot copies the persisted state. Region grids are deep copies; layers
// are shared.
func (s *Storage) Snapshot() Snapshot {
	return Snapshot{
		RegionSize:  s.regionSize,
		MaxHeight:   s.maxHeight,
		Offsets:     s.RegionOffsets(),
		HeightMaps:  s.HeightMaps(),
		ControlMaps: s.ControlMaps(),
		Layers:      s.Layers(),
	}
}

// Validate checks a snapshot without applying it.
func (snap Snapshot) Validate() error {
	if !snap.RegionSize.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRegionSize, snap.RegionSize)
	}
	if err := validateMaxHeight(snap.MaxHeight); err != nil {
		return err
	}
	if err := validateOffsets(snap.Offsets); err != nil {
		return err
	}
	if len(snap.HeightMaps) != len(snap.Offsets) || len(snap.ControlMaps) != len(snap.Offsets) {
		return fmt.Errorf("%w: %d offsets, %d height maps, %d control maps", ErrInvalidMap,
			len(snap.Offsets), len(snap.HeightMaps), len(snap.ControlMaps))
	}
	if err := checkRegionMaps(snap.HeightMaps, MapHeight, snap.RegionSize); err != nil {
		return err
	}
	if err := checkRegionMaps(snap.ControlMaps, MapControl, snap.RegionSize); err != nil {
		return err
	}
	return validateLayers(snap.Layers)
}

// Restore replaces the storage state with snap and marks every derived
// resource dirty. Nothing changes if snap is invalid.
func (s *Storage) Restore(snap Snapshot) error {
	if s.closed {
		return ErrClosed
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}

	s.regionSize = snap.RegionSize
	s.maxHeight = snap.MaxHeight
	s.index.offsets = append([]math.Vec2i(nil), snap.Offsets...)
	s.store.heights = copyMaps(snap.HeightMaps)
	s.store.controls = copyMaps(snap.ControlMaps)
	if err := s.layers.replaceAll(snap.Layers); err != nil {
		return err
	}

	s.invalidateAll()
	s.pushScalars()
	s.updateArrays()
	return nil
}

func checkRegionMaps(maps []*texture.Image, t MapType, size RegionSize) error {
	for i, m := range maps {
		if m == nil || m.Format != mapFormat(t) || m.Width != int(size) || m.Height != int(size) {
			return fmt.Errorf("%w: %s map %d does not match region size %d", ErrInvalidMap, t, i, size)
		}
	}
	return nil
}
