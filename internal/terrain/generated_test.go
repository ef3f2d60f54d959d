package terrain

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-terrain/internal/engine/headless"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
)

func TestGeneratedLifecycle(t *testing.T) {
	b := headless.New()
	var g generated

	if g.state() != StateEmpty {
		t.Fatalf("zero value state = %s, want empty", g.state())
	}

	g.invalidate(b)
	if g.state() != StateDirty {
		t.Errorf("after invalidate: %s, want dirty", g.state())
	}

	img, _ := texture.New(2, 2, texture.FormatRF)
	if err := g.createLayered(b, []*texture.Image{img, img}); err != nil {
		t.Fatalf("createLayered: %v", err)
	}
	if g.state() != StateClean || !g.handle.Valid() {
		t.Errorf("after build: %s handle %d", g.state(), g.handle)
	}
	first := g.handle

	g.invalidate(b)
	if _, live := b.Resource(first); live {
		t.Error("invalidate should release the stale handle")
	}

	if err := g.createLayered(b, nil); err != nil {
		t.Fatalf("createLayered(nil): %v", err)
	}
	if g.state() != StateEmpty {
		t.Errorf("empty source: %s, want empty", g.state())
	}

	if err := g.create(b, img); err != nil {
		t.Fatalf("create: %v", err)
	}
	g.clear(b)
	if g.state() != StateEmpty || g.image != nil {
		t.Errorf("after clear: %s", g.state())
	}
	if b.Live() != 0 {
		t.Errorf("live handles = %d, want 0", b.Live())
	}
	if g.builds != 2 {
		t.Errorf("builds = %d, want 2", g.builds)
	}
}

func TestGeneratedRebuildReleasesPrevious(t *testing.T) {
	b := headless.New()
	var g generated
	img, _ := texture.New(2, 2, texture.FormatRG8)

	for i := 0; i < 3; i++ {
		if err := g.create(b, img); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if b.Live() != 1 {
		t.Errorf("live handles = %d, want 1", b.Live())
	}
}

func TestGeneratedBackendFailure(t *testing.T) {
	b := headless.New()
	b.FailUploads = errors.New("out of memory")
	var g generated
	img, _ := texture.New(2, 2, texture.FormatRF)

	if err := g.createLayered(b, []*texture.Image{img}); err == nil {
		t.Fatal("expected error")
	}
	if g.state() != StateDirty {
		t.Errorf("state after failure = %s, want dirty", g.state())
	}
}
