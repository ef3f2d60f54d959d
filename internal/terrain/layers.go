package terrain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// MaxLayers is the largest layer count the shader arrays can hold.
const MaxLayers = shader.MaxLayers

// TextureRef is a layer texture and the file it was loaded from.
type TextureRef struct {
	Path  string
	Image *texture.Image
}

// LayerChange tells a subscriber what part of a layer changed.
type LayerChange int

const (
	// LayerTextureChanged is sent when the albedo or normal texture is replaced.
	LayerTextureChanged LayerChange = iota
	// LayerValueChanged is sent when the albedo color or uv scale changes.
	LayerValueChanged
)

// Subscription identifies a registered layer listener.
type Subscription uint64

type listener struct {
	id Subscription
	fn func(LayerChange)
}

// Layer is one material definition. Its position in the storage's layer
// list is its index in the texture arrays and shader uniform arrays.
type Layer struct {
	ID   uuid.UUID
	Name string

	albedo        texture.Color
	uvScale       math.Vec3
	albedoTexture TextureRef
	normalTexture TextureRef

	nextSub   Subscription
	listeners []listener
}

// NewLayer creates a white layer with unit uv scale and no textures.
func NewLayer(name string) *Layer {
	return &Layer{
		ID:      uuid.New(),
		Name:    name,
		albedo:  texture.Color{R: 1, G: 1, B: 1, A: 1},
		uvScale: math.Vec3{X: 1, Y: 1, Z: 1},
	}
}

// Albedo returns the tint color.
func (l *Layer) Albedo() texture.Color { return l.albedo }

// UVScale returns the texture coordinate scale.
func (l *Layer) UVScale() math.Vec3 { return l.uvScale }

// AlbedoTexture returns the albedo texture reference.
func (l *Layer) AlbedoTexture() TextureRef { return l.albedoTexture }

// NormalTexture returns the normal texture reference.
func (l *Layer) NormalTexture() TextureRef { return l.normalTexture }

// SetAlbedo sets the tint color.
func (l *Layer) SetAlbedo(c texture.Color) {
	l.albedo = c
	l.notify(LayerValueChanged)
}

// SetUVScale sets the texture coordinate scale.
func (l *Layer) SetUVScale(s math.Vec3) {
	l.uvScale = s
	l.notify(LayerValueChanged)
}

// SetAlbedoTexture replaces the albedo texture.
func (l *Layer) SetAlbedoTexture(ref TextureRef) {
	l.albedoTexture = ref
	l.notify(LayerTextureChanged)
}

// SetNormalTexture replaces the normal texture.
func (l *Layer) SetNormalTexture(ref TextureRef) {
	l.normalTexture = ref
	l.notify(LayerTextureChanged)
}

// Subscribe registers fn to be called after every change.
func (l *Layer) Subscribe(fn func(LayerChange)) Subscription {
	l.nextSub++
	l.listeners = append(l.listeners, listener{id: l.nextSub, fn: fn})
	return l.nextSub
}

// Unsubscribe removes a listener. Unknown subscriptions are ignored.
func (l *Layer) Unsubscribe(sub Subscription) {
	for i, ln := range l.listeners {
		if ln.id == sub {
			l.listeners = append(l.listeners[:i], l.listeners[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of registered listeners.
func (l *Layer) Subscribers() int {
	return len(l.listeners)
}

func (l *Layer) notify(change LayerChange) {
	for _, ln := range l.listeners {
		ln.fn(change)
	}
}

type layerSub struct {
	sub  Subscription
	refs int
}

// layerRegistry is the ordered layer list. A layer listed more than once
// holds a single subscription.
type layerRegistry struct {
	layers   []*Layer
	subs     map[*Layer]*layerSub
	onChange func(LayerChange)
}

func newLayerRegistry(onChange func(LayerChange)) *layerRegistry {
	return &layerRegistry{subs: make(map[*Layer]*layerSub), onChange: onChange}
}

func (r *layerRegistry) attach(l *Layer) {
	if s, ok := r.subs[l]; ok {
		s.refs++
		return
	}
	r.subs[l] = &layerSub{sub: l.Subscribe(r.onChange), refs: 1}
}

func (r *layerRegistry) detach(l *Layer) {
	s, ok := r.subs[l]
	if !ok {
		return
	}
	if s.refs--; s.refs == 0 {
		l.Unsubscribe(s.sub)
		delete(r.subs, l)
	}
}

func (r *layerRegistry) get(index int) (*Layer, error) {
	if index < 0 || index >= len(r.layers) {
		return nil, fmt.Errorf("%w: layer %d of %d", ErrIndexOutOfRange, index, len(r.layers))
	}
	return r.layers[index], nil
}

// set removes (nil layer), replaces (index in range) or appends (index past the end).
func (r *layerRegistry) set(index int, l *Layer) error {
	switch {
	case index < 0:
		return fmt.Errorf("%w: layer %d", ErrIndexOutOfRange, index)
	case index < len(r.layers) && l == nil:
		r.detach(r.layers[index])
		r.layers = append(r.layers[:index], r.layers[index+1:]...)
	case index < len(r.layers):
		r.detach(r.layers[index])
		r.attach(l)
		r.layers[index] = l
	case l == nil:
		return fmt.Errorf("%w: cannot remove layer %d of %d", ErrIndexOutOfRange, index, len(r.layers))
	case len(r.layers) >= MaxLayers:
		return fmt.Errorf("%w: %d layers, max %d", ErrCapacityExceeded, len(r.layers)+1, MaxLayers)
	default:
		r.attach(l)
		r.layers = append(r.layers, l)
	}
	return nil
}

func (r *layerRegistry) insert(index int, l *Layer) error {
	if l == nil {
		return ErrNilLayer
	}
	if index < 0 || index > len(r.layers) {
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, index, len(r.layers))
	}
	if len(r.layers) >= MaxLayers {
		return fmt.Errorf("%w: %d layers, max %d", ErrCapacityExceeded, len(r.layers)+1, MaxLayers)
	}
	r.attach(l)
	r.layers = append(r.layers, nil)
	copy(r.layers[index+1:], r.layers[index:])
	r.layers[index] = l
	return nil
}

func validateLayers(layers []*Layer) error {
	if len(layers) > MaxLayers {
		return fmt.Errorf("%w: %d layers, max %d", ErrCapacityExceeded, len(layers), MaxLayers)
	}
	for i, l := range layers {
		if l == nil {
			return fmt.Errorf("%w: layer %d", ErrNilLayer, i)
		}
	}
	return nil
}

func (r *layerRegistry) replaceAll(layers []*Layer) error {
	if err := validateLayers(layers); err != nil {
		return err
	}
	for _, l := range r.layers {
		r.detach(l)
	}
	r.layers = append([]*Layer(nil), layers...)
	for _, l := range r.layers {
		r.attach(l)
	}
	return nil
}

func (r *layerRegistry) detachAll() {
	for _, l := range r.layers {
		r.detach(l)
	}
}

func (r *layerRegistry) list() []*Layer {
	return append([]*Layer(nil), r.layers...)
}

// scalarArrays returns the per-layer uv scales and colors in list order.
func (r *layerRegistry) scalarArrays() ([]math.Vec3, []texture.Color) {
	scales := make([]math.Vec3, len(r.layers))
	colors := make([]texture.Color, len(r.layers))
	for i, l := range r.layers {
		scales[i] = l.uvScale
		colors[i] = l.albedo
	}
	return scales, colors
}

var (
	blankAlbedo = texture.Color{R: 1, G: 1, B: 1, A: 1}
	blankNormal = texture.Color{R: 0.5, G: 0.5, B: 1, A: 1}
)

// textureLayers collects one texture per layer for an array build. Layers
// without a texture get a blank of the first present texture's shape. A nil
// result means there is nothing to build.
func (r *layerRegistry) textureLayers(pick func(*Layer) *texture.Image, blank texture.Color) ([]*texture.Image, error) {
	var ref *texture.Image
	for _, l := range r.layers {
		if img := pick(l); img != nil {
			ref = img
			break
		}
	}
	if ref == nil {
		return nil, nil
	}

	var filler *texture.Image
	out := make([]*texture.Image, len(r.layers))
	for i, l := range r.layers {
		img := pick(l)
		if img == nil {
			if filler == nil {
				filler = &texture.Image{Width: ref.Width, Height: ref.Height, Format: ref.Format,
					Pix: make([]byte, len(ref.Pix))}
				filler.Fill(blank)
			}
			img = filler
		}
		if !img.SameShape(ref) {
			return nil, fmt.Errorf("%w: layer %d is %dx%d %s, want %dx%d %s", ErrLayerTexture, i,
				img.Width, img.Height, img.Format, ref.Width, ref.Height, ref.Format)
		}
		out[i] = img
	}
	return out, nil
}

func albedoImage(l *Layer) *texture.Image { return l.albedoTexture.Image }
func normalImage(l *Layer) *texture.Image { return l.normalTexture.Image }
