package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func writeTestImage(t *testing.T, path string, encode func(*os.File, image.Image) error) {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	src.Set(3, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := encode(f, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		encode func(*os.File, image.Image) error
	}{
		{"ground.png", func(f *os.File, img image.Image) error { return png.Encode(f, img) }},
		{"ground.bmp", func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeTestImage(t, path, tt.encode)

			img, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if img.Width != 4 || img.Height != 2 || img.Format != FormatRGBA8 {
				t.Fatalf("unexpected shape %dx%d %s", img.Width, img.Height, img.Format)
			}
			i := img.offset(3, 1)
			if img.Pix[i] != 10 || img.Pix[i+1] != 20 || img.Pix[i+2] != 30 {
				t.Errorf("pixel = %v, want [10 20 30]", img.Pix[i:i+3])
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
