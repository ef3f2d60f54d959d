package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/midgard-terrain/pkg/encoding"
)

// GND format errors.
var (
	ErrInvalidGNDMagic       = errors.New("invalid GND magic: expected 'GRGN'")
	ErrUnsupportedGNDVersion = errors.New("unsupported GND version")
	ErrTruncatedGNDData      = errors.New("truncated GND data")
)

// GNDVersion represents the GND file version.
type GNDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GNDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GNDTile holds the corner heights of one ground tile
// (bottom-left, bottom-right, top-left, top-right).
type GNDTile struct {
	Altitude [4]float32
}

// GND is the altitude view of a Ground file. Lightmaps and surfaces are
// skipped while parsing; only what terrain import needs is kept.
type GND struct {
	Version  GNDVersion
	Width    uint32
	Height   uint32
	Zoom     float32
	Textures []string
	Tiles    []GNDTile
}

// GetTile returns the tile at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *GND) GetTile(x, y int) *GNDTile {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Tiles[y*int(g.Width)+x]
}

// GetAltitudeRange returns the minimum and maximum altitude in the ground mesh.
func (g *GND) GetAltitudeRange() (min, max float32) {
	if len(g.Tiles) == 0 {
		return 0, 0
	}

	min = g.Tiles[0].Altitude[0]
	max = g.Tiles[0].Altitude[0]
	for _, tile := range g.Tiles {
		for _, h := range tile.Altitude {
			if h < min {
				min = h
			}
			if h > max {
				max = h
			}
		}
	}
	return min, max
}

// SampleAltitude bilinearly interpolates the corner heights at fractional tile
// coordinates (u along X, v along Y). Coordinates are clamped to the ground.
func (g *GND) SampleAltitude(u, v float32) float32 {
	if len(g.Tiles) == 0 {
		return 0
	}

	u = clamp(u, 0, float32(g.Width))
	v = clamp(v, 0, float32(g.Height))

	x := int(u)
	y := int(v)
	if x >= int(g.Width) {
		x = int(g.Width) - 1
	}
	if y >= int(g.Height) {
		y = int(g.Height) - 1
	}
	fx := u - float32(x)
	fy := v - float32(y)

	a := g.GetTile(x, y).Altitude
	bottom := a[0]*(1-fx) + a[1]*fx
	top := a[2]*(1-fx) + a[3]*fx
	return bottom*(1-fy) + top*fy
}

// ParseGND parses a GND file from raw bytes.
func ParseGND(data []byte) (*GND, error) {
	if len(data) < 18 {
		return nil, ErrTruncatedGNDData
	}
	if string(data[0:4]) != "GRGN" {
		return nil, ErrInvalidGNDMagic
	}

	version := GNDVersion{Major: data[4], Minor: data[5]}
	// Supported versions: 1.5 - 1.9
	if version.Major != 1 || version.Minor < 5 || version.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, version)
	}

	r := bytes.NewReader(data[6:])
	truncated := func(what string) error {
		return fmt.Errorf("%w: reading %s", ErrTruncatedGNDData, what)
	}

	gnd := &GND{Version: version}
	if err := readFields(r, truncated,
		field{"width", &gnd.Width},
		field{"height", &gnd.Height},
		field{"zoom", &gnd.Zoom},
	); err != nil {
		return nil, err
	}
	if gnd.Width == 0 || gnd.Height == 0 || gnd.Width > 1024 || gnd.Height > 1024 {
		return nil, fmt.Errorf("invalid GND dimensions: %dx%d", gnd.Width, gnd.Height)
	}

	var textureCount, textureNameLen uint32
	if err := readFields(r, truncated,
		field{"texture count", &textureCount},
		field{"texture name length", &textureNameLen},
	); err != nil {
		return nil, err
	}
	gnd.Textures = make([]string, textureCount)
	name := make([]byte, textureNameLen)
	for i := range gnd.Textures {
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, truncated(fmt.Sprintf("texture %d name", i))
		}
		gnd.Textures[i] = encoding.FixedStringToUTF8(name)
	}

	// Lightmaps: brightness (1 byte) + RGB (3 bytes) per pixel.
	var lmCount, lmWidth, lmHeight, lmCells uint32
	if err := readFields(r, truncated,
		field{"lightmap count", &lmCount},
		field{"lightmap width", &lmWidth},
		field{"lightmap height", &lmHeight},
		field{"lightmap cells", &lmCells},
	); err != nil {
		return nil, err
	}
	if err := skip(r, int64(lmCount)*int64(lmWidth)*int64(lmHeight)*int64(lmCells)*4); err != nil {
		return nil, truncated("lightmaps")
	}

	// Surfaces: 4 U + 4 V floats, texture and lightmap IDs, BGRA color.
	const surfaceSize = 4*4 + 4*4 + 2 + 2 + 4
	var surfaceCount uint32
	if err := readFields(r, truncated, field{"surface count", &surfaceCount}); err != nil {
		return nil, err
	}
	if err := skip(r, int64(surfaceCount)*surfaceSize); err != nil {
		return nil, truncated("surfaces")
	}

	// Tiles: 4 altitudes followed by 3 surface IDs that import ignores.
	gnd.Tiles = make([]GNDTile, gnd.Width*gnd.Height)
	var surfaceIDs [3]int32
	for i := range gnd.Tiles {
		if err := readFields(r, truncated,
			field{fmt.Sprintf("tile %d altitude", i), &gnd.Tiles[i].Altitude},
			field{fmt.Sprintf("tile %d surfaces", i), &surfaceIDs},
		); err != nil {
			return nil, err
		}
	}

	return gnd, nil
}

// ParseGNDFile parses a GND file from disk.
func ParseGNDFile(path string) (*GND, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GND file: %w", err)
	}
	return ParseGND(data)
}

func skip(r *bytes.Reader, n int64) error {
	if n > int64(r.Len()) {
		return io.ErrUnexpectedEOF
	}
	_, err := r.Seek(n, io.SeekCurrent)
	return err
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
