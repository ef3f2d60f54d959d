package terrain

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

// Material parameter names shared with the terrain shader.
const (
	ParamTerrainHeight   = "terrain_height"
	ParamRegionSize      = "region_size"
	ParamRegionPixelSize = "region_pixel_size"
	ParamRegionMapSize   = "region_map_size"
	ParamRegionMap       = "region_map"
	ParamHeightMaps      = "height_maps"
	ParamControlMaps     = "control_maps"
	ParamNoise           = "noise"
	ParamNoiseScale      = "noise_scale"
	ParamNoiseHeight     = "noise_height"
	ParamNoiseFade       = "noise_fade"
	ParamAlbedoArray     = "texture_array_albedo"
	ParamNormalArray     = "texture_array_normal"
	ParamNormalMax       = "texture_array_normal_max"
	ParamUVScaleArray    = "texture_uv_scale_array"
	ParamColorArray      = "texture_color_array"
	ParamViewProjection  = "view_projection"
	ParamModel           = "model"
	ParamLightDirection  = "light_direction"
)

func (s *Storage) setParam(name string, value any) {
	s.backend.MaterialSetParam(s.material, name, value)
}

func (s *Storage) handle(r Resource) gpu.Handle {
	return s.generated[r].handle
}

// pushScalars publishes the configuration scalars.
func (s *Storage) pushScalars() {
	s.setParam(ParamTerrainHeight, float32(s.maxHeight))
	s.setParam(ParamRegionSize, float32(s.regionSize))
	s.setParam(ParamRegionPixelSize, 1/float32(s.regionSize))
}

// pushRegionParams publishes the region resource handles.
func (s *Storage) pushRegionParams() {
	s.setParam(ParamHeightMaps, s.handle(ResourceHeightMaps))
	s.setParam(ParamControlMaps, s.handle(ResourceControlMaps))
	s.setParam(ParamRegionMap, s.handle(ResourceRegionMap))
	s.setParam(ParamRegionMapSize, int32(RegionMapSize))
}

// pushLayerParams publishes the layer texture array handles.
func (s *Storage) pushLayerParams() {
	s.setParam(ParamAlbedoArray, s.handle(ResourceAlbedoTextures))
	s.setParam(ParamNormalArray, s.handle(ResourceNormalTextures))
}

// pushNoise publishes the noise overlay texture and its scalars.
func (s *Storage) pushNoise() {
	s.setParam(ParamNoise, s.noise.handle)
	s.setParam(ParamNoiseScale, s.noise.scale)
	s.setParam(ParamNoiseHeight, s.noise.height)
	s.setParam(ParamNoiseFade, s.noise.fade)
}

// updateArrays recomputes and publishes the per-layer scalar arrays.
func (s *Storage) updateArrays() {
	scales, colors := s.layers.scalarArrays()
	s.log.Debug("updating layer arrays", zap.Int("layers", len(scales)))
	s.setParam(ParamUVScaleArray, scales)
	s.setParam(ParamColorArray, colors)
	s.setParam(ParamNormalMax, int32(len(scales)-1))
}
