// Package texture provides the typed pixel grids used for region data and
// layer textures, plus decoding of texture files.
package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"math"
)

// Format describes how a pixel is laid out in Image.Pix.
type Format int

// Supported pixel formats.
const (
	FormatRF    Format = iota // one float32 channel (elevation)
	FormatRG8                 // two 8-bit normalized channels (region map)
	FormatRGBA8               // four 8-bit normalized channels (control, albedo, normal)
)

// BytesPerPixel returns the storage size of a single pixel.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRF:
		return 4
	case FormatRG8:
		return 2
	case FormatRGBA8:
		return 4
	}
	return 0
}

// Channels returns the number of channels per pixel.
func (f Format) Channels() int {
	switch f {
	case FormatRF:
		return 1
	case FormatRG8:
		return 2
	case FormatRGBA8:
		return 4
	}
	return 0
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRF:
		return "RF"
	case FormatRG8:
		return "RG8"
	case FormatRGBA8:
		return "RGBA8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Color is a normalized RGBA value. Channels a format does not store are
// dropped on Set and read back as zero (alpha reads back as 1).
type Color struct {
	R, G, B, A float32
}

// Image is a 2D grid of typed samples.
type Image struct {
	Width  int
	Height int
	Format Format
	Pix    []byte // row-major, little endian for float formats
}

// New creates a zero-filled image.
func New(width, height int, format Format) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported pixel format %s", format)
	}
	return &Image{
		Width:  width,
		Height: height,
		Format: format,
		Pix:    make([]byte, width*height*bpp),
	}, nil
}

// InBounds reports whether (x, y) addresses a pixel of the image.
func (img *Image) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width && y < img.Height
}

func (img *Image) offset(x, y int) int {
	return (y*img.Width + x) * img.Format.BytesPerPixel()
}

// At returns the pixel at (x, y). Out-of-range coordinates return the zero color.
func (img *Image) At(x, y int) Color {
	if !img.InBounds(x, y) {
		return Color{}
	}
	i := img.offset(x, y)
	switch img.Format {
	case FormatRF:
		return Color{R: math.Float32frombits(binary.LittleEndian.Uint32(img.Pix[i:])), A: 1}
	case FormatRG8:
		return Color{R: unorm(img.Pix[i]), G: unorm(img.Pix[i+1]), A: 1}
	case FormatRGBA8:
		return Color{R: unorm(img.Pix[i]), G: unorm(img.Pix[i+1]), B: unorm(img.Pix[i+2]), A: unorm(img.Pix[i+3])}
	}
	return Color{}
}

// Set writes the pixel at (x, y). Out-of-range coordinates are ignored.
func (img *Image) Set(x, y int, c Color) {
	if !img.InBounds(x, y) {
		return
	}
	img.put(img.offset(x, y), c)
}

func (img *Image) put(i int, c Color) {
	switch img.Format {
	case FormatRF:
		binary.LittleEndian.PutUint32(img.Pix[i:], math.Float32bits(c.R))
	case FormatRG8:
		img.Pix[i] = toUnorm(c.R)
		img.Pix[i+1] = toUnorm(c.G)
	case FormatRGBA8:
		img.Pix[i] = toUnorm(c.R)
		img.Pix[i+1] = toUnorm(c.G)
		img.Pix[i+2] = toUnorm(c.B)
		img.Pix[i+3] = toUnorm(c.A)
	}
}

// Fill sets every pixel to c.
func (img *Image) Fill(c Color) {
	bpp := img.Format.BytesPerPixel()
	if bpp == 0 || len(img.Pix) == 0 {
		return
	}
	img.put(0, c)
	// Double the filled prefix until the buffer is covered.
	for filled := bpp; filled < len(img.Pix); filled *= 2 {
		copy(img.Pix[filled:], img.Pix[:filled])
	}
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}
	out := *img
	out.Pix = append([]byte(nil), img.Pix...)
	return &out
}

// SameShape reports whether both images have the same size and format.
func (img *Image) SameShape(other *Image) bool {
	return other != nil && img.Width == other.Width && img.Height == other.Height && img.Format == other.Format
}

// Equal reports whether both images hold identical pixels.
func (img *Image) Equal(other *Image) bool {
	if img == nil || other == nil {
		return img == other
	}
	return img.SameShape(other) && bytes.Equal(img.Pix, other.Pix)
}

// FromImage converts any decoded image into an RGBA8 Image.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	out := &Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: FormatRGBA8,
		Pix:    make([]byte, bounds.Dx()*bounds.Dy()*4),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, a16 := src.At(x, y).RGBA()
			out.Pix[i] = uint8(r16 >> 8)
			out.Pix[i+1] = uint8(g16 >> 8)
			out.Pix[i+2] = uint8(b16 >> 8)
			out.Pix[i+3] = uint8(a16 >> 8)
			i += 4
		}
	}
	return out
}

func unorm(b uint8) float32 {
	return float32(b) / 255
}

func toUnorm(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
