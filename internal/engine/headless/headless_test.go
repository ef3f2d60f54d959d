package headless

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

func mustImage(t *testing.T, w, h int, f texture.Format) *texture.Image {
	t.Helper()
	img, err := texture.New(w, h, f)
	if err != nil {
		t.Fatalf("texture.New: %v", err)
	}
	return img
}

func TestTextureLifecycle(t *testing.T) {
	b := New()
	h, err := b.TextureCreate(mustImage(t, 4, 4, texture.FormatRG8))
	if err != nil {
		t.Fatalf("TextureCreate: %v", err)
	}
	if !h.Valid() {
		t.Fatal("expected valid handle")
	}
	if b.Live() != 1 {
		t.Errorf("expected 1 live handle, got %d", b.Live())
	}

	b.Free(h)
	b.Free(h)
	b.Free(gpu.Handle(0))

	st := b.Stats()
	if st.Frees != 1 || st.DoubleFrees != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	if b.Live() != 0 {
		t.Errorf("expected no live handles, got %d", b.Live())
	}
}

func TestTextureLayeredCreate(t *testing.T) {
	b := New()

	h, err := b.TextureLayeredCreate([]*texture.Image{
		mustImage(t, 8, 8, texture.FormatRF),
		mustImage(t, 8, 8, texture.FormatRF),
	})
	if err != nil {
		t.Fatalf("TextureLayeredCreate: %v", err)
	}
	r, ok := b.Resource(h)
	if !ok || r.Kind != KindTextureArray || r.Layers != 2 {
		t.Errorf("unexpected resource %+v", r)
	}

	if _, err := b.TextureLayeredCreate(nil); !errors.Is(err, gpu.ErrNoLayers) {
		t.Errorf("expected ErrNoLayers, got %v", err)
	}
	_, err = b.TextureLayeredCreate([]*texture.Image{
		mustImage(t, 8, 8, texture.FormatRF),
		mustImage(t, 4, 4, texture.FormatRF),
	})
	if !errors.Is(err, gpu.ErrLayerMismatch) {
		t.Errorf("expected ErrLayerMismatch, got %v", err)
	}
}

func TestMaterialParams(t *testing.T) {
	b := New()
	mat, _ := b.MaterialCreate()
	sh, _ := b.ShaderCreate()

	if err := b.ShaderSetCode(sh, shader.Source{}); !errors.Is(err, gpu.ErrEmptySource) {
		t.Errorf("expected ErrEmptySource, got %v", err)
	}
	if err := b.ShaderSetCode(mat, shader.Terrain(shader.Features{})); !errors.Is(err, gpu.ErrUnknownHandle) {
		t.Errorf("expected ErrUnknownHandle for non-shader handle, got %v", err)
	}

	b.MaterialSetShader(mat, sh)
	b.MaterialSetParam(mat, "region_size", float32(1024))

	if v, ok := b.Param(mat, "region_size"); !ok || v != float32(1024) {
		t.Errorf("region_size param = %v, %v", v, ok)
	}
	r, _ := b.Resource(mat)
	if r.Shader != sh {
		t.Errorf("material shader = %d, want %d", r.Shader, sh)
	}
}

func TestFailUploads(t *testing.T) {
	b := New()
	b.FailUploads = errors.New("device lost")
	if _, err := b.TextureCreate(mustImage(t, 1, 1, texture.FormatRG8)); err == nil {
		t.Error("expected injected failure")
	}
	if b.Live() != 0 {
		t.Error("failed upload must not allocate")
	}
}
