package project

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// ErrEmptyGround is returned when a ground file has no tiles.
var ErrEmptyGround = errors.New("ground has no tiles")

// regionAt returns the index of the region covering pos, adding it if needed.
func regionAt(st *terrain.Storage, pos math.Vec3) (int, error) {
	if i := st.RegionIndex(pos); i != terrain.NoRegion {
		return i, nil
	}
	if err := st.AddRegion(pos); err != nil {
		return 0, err
	}
	return st.RegionCount() - 1, nil
}

// ImportGND resamples the altitudes of a ground file into the height map of
// the region covering pos, stretching the ground over the whole region.
// Ground altitudes grow downward; the lowest point maps to height 0 and one
// max-height unit maps to 1. Results are clamped to [0, 1].
func ImportGND(st *terrain.Storage, gnd *formats.GND, pos math.Vec3) error {
	if len(gnd.Tiles) == 0 || gnd.Width == 0 || gnd.Height == 0 {
		return ErrEmptyGround
	}
	index, err := regionAt(st, pos)
	if err != nil {
		return err
	}

	size := int(st.RegionSize())
	img, err := texture.New(size, size, texture.FormatRF)
	if err != nil {
		return err
	}
	_, lowest := gnd.GetAltitudeRange()
	scale := 1 / float32(st.MaxHeight())
	for y := 0; y < size; y++ {
		v := (float32(y) + 0.5) / float32(size) * float32(gnd.Height)
		for x := 0; x < size; x++ {
			u := (float32(x) + 0.5) / float32(size) * float32(gnd.Width)
			h := (lowest - gnd.SampleAltitude(u, v)) * scale
			img.Set(x, y, texture.Color{R: min(max(h, 0), 1)})
		}
	}

	if err := st.SetMap(index, terrain.MapHeight, img); err != nil {
		return fmt.Errorf("importing ground: %w", err)
	}
	return nil
}

// ImportHeightImage writes the red channel of an image into the height map of
// the region covering pos, resampling with nearest neighbour.
func ImportHeightImage(st *terrain.Storage, src *texture.Image, pos math.Vec3) error {
	index, err := regionAt(st, pos)
	if err != nil {
		return err
	}

	size := int(st.RegionSize())
	img, err := texture.New(size, size, texture.FormatRF)
	if err != nil {
		return err
	}
	for y := 0; y < size; y++ {
		sy := y * src.Height / size
		for x := 0; x < size; x++ {
			sx := x * src.Width / size
			img.Set(x, y, texture.Color{R: src.At(sx, sy).R})
		}
	}

	if err := st.SetMap(index, terrain.MapHeight, img); err != nil {
		return fmt.Errorf("importing height image: %w", err)
	}
	return nil
}
