package terrain

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-terrain/pkg/math"
)

func redByte(t *testing.T, offsets []math.Vec2i, x, y int) (uint8, uint8) {
	t.Helper()
	img, err := EncodeRegionMap(offsets, RegionMapSize)
	if err != nil {
		t.Fatalf("EncodeRegionMap: %v", err)
	}
	i := (y*img.Width + x) * 2
	return img.Pix[i], img.Pix[i+1]
}

func TestEncodeRegionMapSingleRegion(t *testing.T) {
	r, g := redByte(t, []math.Vec2i{{}}, 8, 8)
	if r != 1 {
		t.Errorf("red at (8,8) = %d, want 1", r)
	}
	if g != 255 {
		t.Errorf("green at (8,8) = %d, want 255", g)
	}
}

func TestEncodeRegionMapEmpty(t *testing.T) {
	img, err := EncodeRegionMap(nil, RegionMapSize)
	if err != nil {
		t.Fatalf("EncodeRegionMap: %v", err)
	}
	if img.Width != 16 || img.Height != 16 {
		t.Fatalf("size = %dx%d, want 16x16", img.Width, img.Height)
	}
	for i, b := range img.Pix {
		if b != 0 {
			t.Fatalf("byte %d = %d, want all zero", i, b)
		}
	}
}

func TestEncodeRegionMapIndices(t *testing.T) {
	offsets := []math.Vec2i{{X: 0, Y: 0}, {X: -8, Y: -8}, {X: 7, Y: 7}, {X: 2, Y: -3}}
	img, err := EncodeRegionMap(offsets, RegionMapSize)
	if err != nil {
		t.Fatalf("EncodeRegionMap: %v", err)
	}
	for i, o := range offsets {
		x, y := int(o.X)+8, int(o.Y)+8
		got := img.Pix[(y*16+x)*2]
		if int(got) != i+1 {
			t.Errorf("region %d at %v: red = %d, want %d", i, o, got, i+1)
		}
	}

	occupied := 0
	for i := 0; i < len(img.Pix); i += 2 {
		if img.Pix[i] != 0 {
			occupied++
		}
	}
	if occupied != len(offsets) {
		t.Errorf("occupied cells = %d, want %d", occupied, len(offsets))
	}
}

func TestEncodeRegionMapErrors(t *testing.T) {
	if _, err := EncodeRegionMap([]math.Vec2i{{X: 8}}, RegionMapSize); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := EncodeRegionMap(make([]math.Vec2i, MaxRegions+1), RegionMapSize); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}
