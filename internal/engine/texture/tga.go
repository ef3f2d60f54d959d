package texture

import (
	"fmt"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// DecodeTGA decodes a TGA file into an RGBA8 Image.
// Supports uncompressed true-color (type 2) and RLE compressed (type 10) files
// with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d (only uncompressed/RLE true-color supported)", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	img, err := New(width, height, FormatRGBA8)
	if err != nil {
		return nil, fmt.Errorf("TGA header: %w", err)
	}

	d := tgaDecoder{
		img:         img,
		src:         data[offset:],
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.bpp {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
		for n := 0; n < width*height; n++ {
			d.put(n, d.read())
		}
		return img, nil
	}

	d.decodeRLE()
	return img, nil
}

type tgaDecoder struct {
	img         *Image
	src         []byte
	pos         int
	bpp         int
	topToBottom bool
}

// read consumes one BGR(A) pixel and returns it as RGBA bytes.
func (d *tgaDecoder) read() [4]byte {
	px := [4]byte{d.src[d.pos+2], d.src[d.pos+1], d.src[d.pos], 255}
	if d.bpp == 4 {
		px[3] = d.src[d.pos+3]
	}
	d.pos += d.bpp
	return px
}

// put stores pixel number n, flipping rows for bottom-up files.
func (d *tgaDecoder) put(n int, px [4]byte) {
	x := n % d.img.Width
	y := n / d.img.Width
	if !d.topToBottom {
		y = d.img.Height - 1 - y
	}
	copy(d.img.Pix[(y*d.img.Width+x)*4:], px[:])
}

// decodeRLE decodes run-length packets. Truncated input leaves the remaining pixels black.
func (d *tgaDecoder) decodeRLE() {
	total := d.img.Width * d.img.Height
	n := 0

	for n < total && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.bpp > len(d.src) {
				return
			}
			px := d.read()
			for i := 0; i < count && n < total; i++ {
				d.put(n, px)
				n++
			}
			continue
		}

		for i := 0; i < count && n < total; i++ {
			if d.pos+d.bpp > len(d.src) {
				return
			}
			d.put(n, d.read())
			n++
		}
	}
}
