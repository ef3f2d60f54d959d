package terrain

import (
	"fmt"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// regionWeight is written to the green channel of every occupied cell.
const regionWeight = 1.0

// EncodeRegionMap builds the region lookup grid: the cell at offset+size/2
// holds (index+1)/255 in red and a constant weight in green. Unoccupied
// cells are zero.
func EncodeRegionMap(offsets []math.Vec2i, size int) (*texture.Image, error) {
	if len(offsets) > MaxRegions {
		return nil, fmt.Errorf("%w: %d regions, max %d", ErrCapacityExceeded, len(offsets), MaxRegions)
	}
	img, err := texture.New(size, size, texture.FormatRG8)
	if err != nil {
		return nil, err
	}
	img.Fill(texture.Color{A: 1})

	center := math.Vec2i{X: int32(size / 2), Y: int32(size / 2)}
	for i, o := range offsets {
		cell := o.Add(center)
		if !img.InBounds(int(cell.X), int(cell.Y)) {
			return nil, fmt.Errorf("%w: region %d at %v", ErrOutOfBounds, i, o)
		}
		img.Set(int(cell.X), int(cell.Y), texture.Color{R: float32(i+1) / 255, G: regionWeight, A: 1})
	}
	return img, nil
}
