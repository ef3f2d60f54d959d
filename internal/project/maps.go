package project

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// encodeMaps converts the region lists of a snapshot into a T3DM blob.
// Offsets and grids must be in step.
func encodeMaps(snap terrain.Snapshot) (*formats.T3DM, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	size := int(snap.RegionSize)
	blob := &formats.T3DM{
		RegionSize: uint32(size),
		Regions:    make([]formats.T3DMRegion, len(snap.Offsets)),
	}
	for i, o := range snap.Offsets {
		heights := make([]float32, size*size)
		h := snap.HeightMaps[i]
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				heights[y*size+x] = h.At(x, y).R
			}
		}
		blob.Regions[i] = formats.T3DMRegion{
			OffsetX: o.X,
			OffsetY: o.Y,
			Heights: heights,
			Control: append([]byte(nil), snap.ControlMaps[i].Pix...),
		}
	}
	return blob, nil
}

// decodeMaps fills the region lists of snap from a T3DM blob.
func decodeMaps(blob *formats.T3DM, snap *terrain.Snapshot) error {
	if int(blob.RegionSize) != int(snap.RegionSize) {
		return fmt.Errorf("%w: maps use region size %d, manifest %d", ErrMismatch, blob.RegionSize, snap.RegionSize)
	}
	size := int(blob.RegionSize)
	for _, r := range blob.Regions {
		h, err := texture.New(size, size, texture.FormatRF)
		if err != nil {
			return err
		}
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				h.Set(x, y, texture.Color{R: r.Heights[y*size+x]})
			}
		}
		c, err := texture.New(size, size, texture.FormatRGBA8)
		if err != nil {
			return err
		}
		copy(c.Pix, r.Control)

		snap.Offsets = append(snap.Offsets, math.Vec2i{X: r.OffsetX, Y: r.OffsetY})
		snap.HeightMaps = append(snap.HeightMaps, h)
		snap.ControlMaps = append(snap.ControlMaps, c)
	}
	return nil
}
