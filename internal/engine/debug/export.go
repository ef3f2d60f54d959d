package debug

import (
	"image"
	"image/color"

	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

// ToImage converts a terrain image for viewing. Elevation (RF) becomes
// grayscale clamped to [0, 1], region maps (RG8) keep red and green, and RGBA8
// is copied as is.
func ToImage(src *texture.Image) image.Image {
	out := image.NewNRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			c := src.At(x, y)
			switch src.Format {
			case texture.FormatRF:
				v := unit(c.R)
				out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
			case texture.FormatRG8:
				out.SetNRGBA(x, y, color.NRGBA{R: unit(c.R), G: unit(c.G), A: 255})
			default:
				out.SetNRGBA(x, y, color.NRGBA{R: unit(c.R), G: unit(c.G), B: unit(c.B), A: unit(c.A)})
			}
		}
	}
	return out
}

func unit(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
