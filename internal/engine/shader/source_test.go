package shader

import (
	"strings"
	"testing"
)

func TestTerrainWithoutNoise(t *testing.T) {
	src := Terrain(Features{})

	if !strings.HasPrefix(src.Vertex, "#version 410 core") {
		t.Error("vertex source should start with the version directive")
	}
	if strings.Contains(src.Vertex, "uniform sampler2D noise") {
		t.Error("noise uniform present without the noise feature")
	}
	if strings.Contains(src.Vertex, "noise_fade") {
		t.Error("noise blend present without the noise feature")
	}
	for _, name := range []string{"region_map", "height_maps", "terrain_height", "region_size"} {
		if !strings.Contains(src.Vertex, name) {
			t.Errorf("vertex source missing %s", name)
		}
	}
}

func TestTerrainWithNoise(t *testing.T) {
	src := Terrain(Features{Noise: true})

	for _, want := range []string{"uniform sampler2D noise;", "noise_scale", "noise_height", "noise_fade", "float weight"} {
		if !strings.Contains(src.Vertex, want) {
			t.Errorf("vertex source missing %q", want)
		}
	}
}

func TestTerrainLayerArrays(t *testing.T) {
	src := Terrain(Features{})
	if !strings.Contains(src.Fragment, "texture_uv_scale_array[256]") {
		t.Error("fragment source should size layer arrays to MaxLayers")
	}
	if !strings.Contains(src.Fragment, "texture_array_albedo") {
		t.Error("fragment source missing albedo array")
	}
}
