// Package terrain stores terrain regions and material layers, and keeps the
// GPU resources derived from them in sync.
//
// Mutations only mark derived resources dirty. Nothing is rebuilt until the
// next UpdateRegions, UpdateLayers or Update pass, so any number of edits
// between passes cost a single rebuild. Storage is not safe for concurrent use.
package terrain

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// MaxTerrainHeight is the largest allowed max height.
const MaxTerrainHeight = 1024

// Settings holds the scalar configuration of a Storage.
type Settings struct {
	RegionSize  RegionSize
	MaxHeight   int
	NoiseScale  float32
	NoiseHeight float32
	NoiseFade   float32
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		RegionSize:  Size1024,
		MaxHeight:   512,
		NoiseScale:  1.0,
		NoiseHeight: 0.5,
		NoiseFade:   5.0,
	}
}

// Validate checks the region size and max height.
func (cfg Settings) Validate() error {
	if !cfg.RegionSize.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRegionSize, cfg.RegionSize)
	}
	return validateMaxHeight(cfg.MaxHeight)
}

func validateMaxHeight(h int) error {
	if h < 1 || h > MaxTerrainHeight {
		return fmt.Errorf("%w: %d (1..%d)", ErrInvalidMaxHeight, h, MaxTerrainHeight)
	}
	return nil
}

type noiseOverlay struct {
	image  *texture.Image
	handle gpu.Handle
	scale  float32
	height float32
	fade   float32
}

// Storage owns the terrain regions, the layer list, the material and every
// derived resource handle.
type Storage struct {
	backend gpu.Backend
	log     *zap.Logger

	regionSize RegionSize
	maxHeight  int

	material    gpu.Handle
	shader      gpu.Handle
	override    gpu.Handle
	overrideSrc *shader.Source

	noise noiseOverlay

	index  regionIndex
	store  regionStore
	layers *layerRegistry

	generated [resourceCount]generated
	closed    bool
}

// New creates an empty storage with its material and generated shader. All
// derived resources start dirty, so the first Update builds them.
func New(backend gpu.Backend, cfg Settings) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Storage{
		backend:    backend,
		log:        logger.Named("terrain"),
		regionSize: cfg.RegionSize,
		maxHeight:  cfg.MaxHeight,
		noise: noiseOverlay{
			scale:  cfg.NoiseScale,
			height: cfg.NoiseHeight,
			fade:   cfg.NoiseFade,
		},
	}
	s.layers = newLayerRegistry(s.onLayerChange)

	var err error
	if s.material, err = backend.MaterialCreate(); err != nil {
		return nil, fmt.Errorf("creating material: %w", err)
	}
	if s.shader, err = backend.ShaderCreate(); err != nil {
		backend.Free(s.material)
		return nil, fmt.Errorf("creating shader: %w", err)
	}
	if err := s.updateShader(); err != nil {
		backend.Free(s.shader)
		backend.Free(s.material)
		return nil, err
	}
	backend.MaterialSetShader(s.material, s.shader)

	s.invalidateAll()
	s.pushScalars()
	s.pushNoise()
	s.updateArrays()
	return s, nil
}

// updateShader regenerates the terrain shader for the active features.
func (s *Storage) updateShader() error {
	features := shader.Features{Noise: s.noise.handle.Valid()}
	s.log.Info("updating material", zap.Bool("noise", features.Noise))
	if err := s.backend.ShaderSetCode(s.shader, shader.Terrain(features)); err != nil {
		return fmt.Errorf("setting terrain shader: %w", err)
	}
	return nil
}

func (s *Storage) invalidate(resources ...Resource) {
	if s.closed {
		return
	}
	for _, r := range resources {
		s.generated[r].invalidate(s.backend)
	}
}

func (s *Storage) invalidateAll() {
	s.invalidate(Resources...)
}

func (s *Storage) invalidateRegions() {
	s.invalidate(ResourceHeightMaps, ResourceControlMaps, ResourceRegionMap)
}

// RegionSize returns the region edge length.
func (s *Storage) RegionSize() RegionSize {
	return s.regionSize
}

// SetRegionSize changes the region edge length. Existing region data is not
// resized; callers must treat it as stale.
func (s *Storage) SetRegionSize(size RegionSize) error {
	if s.closed {
		return ErrClosed
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRegionSize, size)
	}
	s.regionSize = size
	s.pushScalars()
	return nil
}

// MaxHeight returns the height that a normalized elevation of 1 maps to.
func (s *Storage) MaxHeight() int {
	return s.maxHeight
}

// SetMaxHeight sets the terrain height scale.
func (s *Storage) SetMaxHeight(h int) error {
	if s.closed {
		return ErrClosed
	}
	if err := validateMaxHeight(h); err != nil {
		return err
	}
	s.maxHeight = h
	s.pushScalars()
	return nil
}

// AddRegion appends an empty region at the grid offset covering pos.
func (s *Storage) AddRegion(pos math.Vec3) error {
	if s.closed {
		return ErrClosed
	}
	offset := OffsetOf(pos, s.regionSize)
	if s.index.find(offset) != NoRegion {
		return fmt.Errorf("%w at %v", ErrRegionExists, offset)
	}
	if s.index.count() >= MaxRegions {
		return fmt.Errorf("%w: %d regions", ErrCapacityExceeded, MaxRegions)
	}
	if !InRegionMap(offset) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, offset)
	}
	height, control, err := newRegionMaps(s.regionSize)
	if err != nil {
		return err
	}

	s.index.offsets = append(s.index.offsets, offset)
	s.store.heights = append(s.store.heights, height)
	s.store.controls = append(s.store.controls, control)
	s.invalidateRegions()

	s.log.Debug("added region",
		zap.Int32("x", offset.X),
		zap.Int32("y", offset.Y),
		zap.Int("index", s.index.count()-1))
	return nil
}

// RemoveRegion removes the region covering pos. Later regions move down one
// slot. Removing the last remaining region is silently ignored.
func (s *Storage) RemoveRegion(pos math.Vec3) error {
	if s.closed {
		return ErrClosed
	}
	if s.index.count() == 1 {
		return nil
	}
	offset := OffsetOf(pos, s.regionSize)
	i := s.index.find(offset)
	if i == NoRegion {
		return fmt.Errorf("%w at %v", ErrRegionNotFound, offset)
	}

	s.index.offsets = append(s.index.offsets[:i], s.index.offsets[i+1:]...)
	s.store.removeAt(i)
	s.invalidateRegions()

	s.log.Debug("removed region",
		zap.Int32("x", offset.X),
		zap.Int32("y", offset.Y),
		zap.Int("index", i))
	return nil
}

// HasRegion reports whether a region covers pos.
func (s *Storage) HasRegion(pos math.Vec3) bool {
	return s.RegionIndex(pos) != NoRegion
}

// RegionIndex returns the slot of the region covering pos, or NoRegion.
func (s *Storage) RegionIndex(pos math.Vec3) int {
	return s.index.find(OffsetOf(pos, s.regionSize))
}

// RegionCount returns the number of regions.
func (s *Storage) RegionCount() int {
	return s.index.count()
}

// RegionOffsets returns a copy of the region offsets in slot order.
func (s *Storage) RegionOffsets() []math.Vec2i {
	return append([]math.Vec2i(nil), s.index.offsets...)
}

// SetRegionOffsets moves the existing regions to new offsets. The list must
// hold one offset per region; region data keeps its slot.
func (s *Storage) SetRegionOffsets(offsets []math.Vec2i) error {
	if s.closed {
		return ErrClosed
	}
	if err := validateOffsets(offsets); err != nil {
		return err
	}
	if len(offsets) != s.index.count() {
		return fmt.Errorf("%w: %d offsets for %d regions", ErrRegionCount, len(offsets), s.index.count())
	}
	s.index.offsets = append([]math.Vec2i(nil), offsets...)
	s.invalidate(ResourceRegionMap)
	return nil
}

// HeightMaps returns copies of the per-region elevation grids.
func (s *Storage) HeightMaps() []*texture.Image {
	return copyMaps(s.store.heights)
}

// SetHeightMaps replaces the elevation grids with copies of maps, one per
// region in slot order.
func (s *Storage) SetHeightMaps(maps []*texture.Image) error {
	if err := s.checkMaps(maps, MapHeight); err != nil {
		return err
	}
	s.store.heights = copyMaps(maps)
	s.ForceUpdateMaps(MapHeight)
	return nil
}

// ControlMaps returns copies of the per-region control grids.
func (s *Storage) ControlMaps() []*texture.Image {
	return copyMaps(s.store.controls)
}

// SetControlMaps replaces the control grids with copies of maps, one per
// region in slot order.
func (s *Storage) SetControlMaps(maps []*texture.Image) error {
	if err := s.checkMaps(maps, MapControl); err != nil {
		return err
	}
	s.store.controls = copyMaps(maps)
	s.ForceUpdateMaps(MapControl)
	return nil
}

// checkMaps validates a full map list against the region count and size.
func (s *Storage) checkMaps(maps []*texture.Image, t MapType) error {
	if s.closed {
		return ErrClosed
	}
	if err := checkRegionMaps(maps, t, s.regionSize); err != nil {
		return err
	}
	if len(maps) != s.index.count() {
		return fmt.Errorf("%w: %d %s maps for %d regions", ErrRegionCount, len(maps), t, s.index.count())
	}
	return nil
}

// Map returns a copy of one region's grid.
func (s *Storage) Map(index int, t MapType) (*texture.Image, error) {
	if t != MapHeight && t != MapControl {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMap, t)
	}
	list := s.store.list(t)
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %s map %d of %d", ErrIndexOutOfRange, t, index, len(list))
	}
	return list[index].Clone(), nil
}

// SetMap replaces one region's grid. The new grid must match the shape of
// the one it replaces.
func (s *Storage) SetMap(index int, t MapType, img *texture.Image) error {
	if s.closed {
		return ErrClosed
	}
	if t != MapHeight && t != MapControl {
		return fmt.Errorf("%w: %s", ErrUnsupportedMap, t)
	}
	list := s.store.list(t)
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s map %d of %d", ErrIndexOutOfRange, t, index, len(list))
	}
	if img == nil || !img.SameShape(list[index]) {
		return fmt.Errorf("%w: %s map %d must be %dx%d %s", ErrInvalidMap, t, index,
			list[index].Width, list[index].Height, list[index].Format)
	}
	list[index] = img.Clone()
	s.ForceUpdateMaps(t)
	return nil
}

// ForceUpdateMaps marks the array resources of a map category dirty.
// MapColor has no resource and is ignored.
func (s *Storage) ForceUpdateMaps(t MapType) {
	switch t {
	case MapHeight:
		s.invalidate(ResourceHeightMaps)
	case MapControl:
		s.invalidate(ResourceControlMaps)
	case MapColor:
	default:
		s.invalidate(ResourceHeightMaps, ResourceControlMaps)
	}
}

// Layer returns the layer at index.
func (s *Storage) Layer(index int) (*Layer, error) {
	return s.layers.get(index)
}

// SetLayer replaces the layer at index, removes it when l is nil, or appends
// l when index is past the end.
func (s *Storage) SetLayer(index int, l *Layer) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.layers.set(index, l); err != nil {
		return err
	}
	s.layersChanged()
	return nil
}

// InsertLayer inserts l before index. Index may equal LayerCount.
func (s *Storage) InsertLayer(index int, l *Layer) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.layers.insert(index, l); err != nil {
		return err
	}
	s.layersChanged()
	return nil
}

// Layers returns the layer list.
func (s *Storage) Layers() []*Layer {
	return s.layers.list()
}

// SetLayers replaces the layer list.
func (s *Storage) SetLayers(layers []*Layer) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.layers.replaceAll(layers); err != nil {
		return err
	}
	s.layersChanged()
	return nil
}

// LayerCount returns the number of layers.
func (s *Storage) LayerCount() int {
	return len(s.layers.layers)
}

func (s *Storage) layersChanged() {
	s.invalidate(ResourceAlbedoTextures, ResourceNormalTextures)
	s.updateArrays()
}

func (s *Storage) onLayerChange(change LayerChange) {
	switch change {
	case LayerTextureChanged:
		s.invalidate(ResourceAlbedoTextures, ResourceNormalTextures)
	case LayerValueChanged:
		s.updateArrays()
	}
}

// NoiseTexture returns a copy of the noise overlay texture, or nil.
func (s *Storage) NoiseTexture() *texture.Image {
	return s.noise.image.Clone()
}

// SetNoiseTexture uploads a noise overlay texture and regenerates the shader.
// A nil image disables the overlay.
func (s *Storage) SetNoiseTexture(img *texture.Image) error {
	if s.closed {
		return ErrClosed
	}
	var h gpu.Handle
	if img != nil {
		img = img.Clone()
		var err error
		if h, err = s.backend.TextureCreate(img); err != nil {
			return fmt.Errorf("uploading noise texture: %w", err)
		}
	}
	if s.noise.handle.Valid() {
		s.backend.Free(s.noise.handle)
	}
	s.noise.image = img
	s.noise.handle = h
	s.setParam(ParamNoise, h)
	return s.updateShader()
}

// NoiseScale returns the noise texture coordinate scale.
func (s *Storage) NoiseScale() float32 { return s.noise.scale }

// NoiseHeight returns the noise overlay amplitude.
func (s *Storage) NoiseHeight() float32 { return s.noise.height }

// NoiseFade returns the noise fade exponent.
func (s *Storage) NoiseFade() float32 { return s.noise.fade }

// SetNoiseScale sets the noise texture coordinate scale.
func (s *Storage) SetNoiseScale(v float32) {
	s.noise.scale = v
	s.setParam(ParamNoiseScale, v)
}

// SetNoiseHeight sets the noise overlay amplitude.
func (s *Storage) SetNoiseHeight(v float32) {
	s.noise.height = v
	s.setParam(ParamNoiseHeight, v)
}

// SetNoiseFade sets the noise fade exponent.
func (s *Storage) SetNoiseFade(v float32) {
	s.noise.fade = v
	s.setParam(ParamNoiseFade, v)
}

// ShaderOverride returns a copy of the override source, or nil.
func (s *Storage) ShaderOverride() *shader.Source {
	if s.overrideSrc == nil {
		return nil
	}
	src := *s.overrideSrc
	return &src
}

// SetShaderOverride binds a custom shader to the material. Nil restores the
// generated terrain shader.
func (s *Storage) SetShaderOverride(src *shader.Source) error {
	if s.closed {
		return ErrClosed
	}
	if src == nil {
		if s.override.Valid() {
			s.backend.MaterialSetShader(s.material, s.shader)
			s.backend.Free(s.override)
		}
		s.override = 0
		s.overrideSrc = nil
		return nil
	}

	sh, err := s.backend.ShaderCreate()
	if err != nil {
		return fmt.Errorf("creating override shader: %w", err)
	}
	if err := s.backend.ShaderSetCode(sh, *src); err != nil {
		s.backend.Free(sh)
		return fmt.Errorf("setting override shader: %w", err)
	}
	s.backend.MaterialSetShader(s.material, sh)
	if s.override.Valid() {
		s.backend.Free(s.override)
	}
	s.override = sh
	saved := *src
	s.overrideSrc = &saved
	return nil
}

// Material returns the material handle the renderer draws with.
func (s *Storage) Material() gpu.Handle {
	return s.material
}

// Shader returns the shader bound to the material.
func (s *Storage) Shader() gpu.Handle {
	if s.override.Valid() {
		return s.override
	}
	return s.shader
}

// ResourceState returns the lifecycle state of a derived resource.
func (s *Storage) ResourceState(r Resource) State {
	if r < 0 || r >= resourceCount {
		return StateEmpty
	}
	return s.generated[r].state()
}

// ResourceHandle returns the current handle of a derived resource.
func (s *Storage) ResourceHandle(r Resource) gpu.Handle {
	if r < 0 || r >= resourceCount {
		return 0
	}
	return s.generated[r].handle
}

// BuildCount returns how many times a derived resource has been built.
func (s *Storage) BuildCount(r Resource) int {
	if r < 0 || r >= resourceCount {
		return 0
	}
	return s.generated[r].builds
}

func buildError(r Resource, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("building %s: %w", r, err)
}

// UpdateRegions rebuilds the dirty region resources and publishes their
// handles. A failed build leaves its resource dirty; the others still build.
func (s *Storage) UpdateRegions() error {
	if s.closed {
		return ErrClosed
	}
	var err error
	if g := &s.generated[ResourceHeightMaps]; g.dirty {
		s.log.Info("updating height maps", zap.Int("regions", len(s.store.heights)))
		err = multierr.Append(err, buildError(ResourceHeightMaps, g.createLayered(s.backend, s.store.heights)))
	}
	if g := &s.generated[ResourceControlMaps]; g.dirty {
		s.log.Info("updating control maps", zap.Int("regions", len(s.store.controls)))
		err = multierr.Append(err, buildError(ResourceControlMaps, g.createLayered(s.backend, s.store.controls)))
	}
	if g := &s.generated[ResourceRegionMap]; g.dirty {
		s.log.Info("updating region map", zap.Int("regions", s.index.count()))
		img, encErr := EncodeRegionMap(s.index.offsets, RegionMapSize)
		if encErr == nil {
			encErr = g.create(s.backend, img)
		}
		err = multierr.Append(err, buildError(ResourceRegionMap, encErr))
	}
	s.pushRegionParams()
	return err
}

// UpdateLayers rebuilds the dirty layer texture arrays and publishes their handles.
func (s *Storage) UpdateLayers() error {
	if s.closed {
		return ErrClosed
	}
	var err error
	if g := &s.generated[ResourceAlbedoTextures]; g.dirty {
		s.log.Info("generating albedo texture array", zap.Int("layers", s.LayerCount()))
		err = multierr.Append(err, buildError(ResourceAlbedoTextures, s.buildLayerArray(g, albedoImage, blankAlbedo)))
	}
	if g := &s.generated[ResourceNormalTextures]; g.dirty {
		s.log.Info("generating normal texture array", zap.Int("layers", s.LayerCount()))
		err = multierr.Append(err, buildError(ResourceNormalTextures, s.buildLayerArray(g, normalImage, blankNormal)))
	}
	s.pushLayerParams()
	return err
}

func (s *Storage) buildLayerArray(g *generated, pick func(*Layer) *texture.Image, blank texture.Color) error {
	images, err := s.layers.textureLayers(pick, blank)
	if err != nil {
		return err
	}
	return g.createLayered(s.backend, images)
}

// Update runs both update passes and publishes every material parameter.
func (s *Storage) Update() error {
	if s.closed {
		return ErrClosed
	}
	err := multierr.Combine(s.UpdateRegions(), s.UpdateLayers())
	s.pushScalars()
	s.pushNoise()
	return err
}

// Close releases every handle the storage owns. Later mutations return
// ErrClosed; the scalar noise setters only update the stored value.
func (s *Storage) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := range s.generated {
		s.generated[i].clear(s.backend)
	}
	s.layers.detachAll()
	if s.noise.handle.Valid() {
		s.backend.Free(s.noise.handle)
		s.noise.handle = 0
	}
	if s.override.Valid() {
		s.backend.Free(s.override)
		s.override = 0
	}
	s.backend.Free(s.shader)
	s.backend.Free(s.material)
	s.log.Debug("storage closed")
}
