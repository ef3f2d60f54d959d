// Package glbackend implements gpu.Backend on OpenGL 4.1 core.
//
// All methods must be called on the thread that owns the GL context.
package glbackend

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/texture"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

type glTexture struct {
	id     uint32
	target uint32
}

type glShader struct {
	program  uint32
	uniforms map[string]int32
}

type glMaterial struct {
	shader gpu.Handle
	params map[string]any
}

// Backend owns GL textures and programs behind gpu handles. Materials live
// on the CPU and are applied with Bind.
type Backend struct {
	log  *zap.Logger
	next gpu.Handle

	textures  map[gpu.Handle]*glTexture
	shaders   map[gpu.Handle]*glShader
	materials map[gpu.Handle]*glMaterial
}

var _ gpu.Backend = (*Backend)(nil)

// New creates a backend. gl.Init must have been called.
func New() *Backend {
	return &Backend{
		log:       logger.Named("gl"),
		textures:  make(map[gpu.Handle]*glTexture),
		shaders:   make(map[gpu.Handle]*glShader),
		materials: make(map[gpu.Handle]*glMaterial),
	}
}

func (b *Backend) alloc() gpu.Handle {
	b.next++
	return b.next
}

// pixelFormat maps an image format to GL internal format, format and type.
func pixelFormat(f texture.Format) (internal int32, format, xtype uint32, err error) {
	switch f {
	case texture.FormatRF:
		return gl.R32F, gl.RED, gl.FLOAT, nil
	case texture.FormatRG8:
		return gl.RG8, gl.RG, gl.UNSIGNED_BYTE, nil
	case texture.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported texture format %s", f)
}

func setSampling(target uint32, f texture.Format) {
	switch f {
	case texture.FormatRG8:
		// Lookup grid, read with texelFetch.
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	case texture.FormatRGBA8:
		gl.GenerateMipmap(target)
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.REPEAT)
	default:
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.REPEAT)
	}
}

func checkError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}

// TextureCreate uploads a 2D texture.
func (b *Backend) TextureCreate(img *texture.Image) (gpu.Handle, error) {
	if img == nil {
		return 0, gpu.ErrNilImage
	}
	internal, format, xtype, err := pixelFormat(img.Format)
	if err != nil {
		return 0, err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height),
		0, format, xtype, unsafe.Pointer(&img.Pix[0]))
	setSampling(gl.TEXTURE_2D, img.Format)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := checkError("texture upload"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}

	h := b.alloc()
	b.textures[h] = &glTexture{id: id, target: gl.TEXTURE_2D}
	b.log.Debug("texture created",
		zap.Uint64("handle", uint64(h)),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Stringer("format", img.Format))
	return h, nil
}

// TextureLayeredCreate uploads a 2D array texture, one layer per image.
func (b *Backend) TextureLayeredCreate(layers []*texture.Image) (gpu.Handle, error) {
	if err := gpu.ValidateLayers(layers); err != nil {
		return 0, err
	}
	first := layers[0]
	internal, format, xtype, err := pixelFormat(first.Format)
	if err != nil {
		return 0, err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, internal, int32(first.Width), int32(first.Height), int32(len(layers)),
		0, format, xtype, nil)
	for i, img := range layers {
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, int32(i), int32(img.Width), int32(img.Height), 1,
			format, xtype, unsafe.Pointer(&img.Pix[0]))
	}
	setSampling(gl.TEXTURE_2D_ARRAY, first.Format)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)

	if err := checkError("texture array upload"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}

	h := b.alloc()
	b.textures[h] = &glTexture{id: id, target: gl.TEXTURE_2D_ARRAY}
	b.log.Debug("texture array created",
		zap.Uint64("handle", uint64(h)),
		zap.Int("layers", len(layers)),
		zap.Int("width", first.Width),
		zap.Stringer("format", first.Format))
	return h, nil
}

// MaterialCreate creates an empty material.
func (b *Backend) MaterialCreate() (gpu.Handle, error) {
	h := b.alloc()
	b.materials[h] = &glMaterial{params: make(map[string]any)}
	return h, nil
}

// ShaderCreate creates a shader with no program.
func (b *Backend) ShaderCreate() (gpu.Handle, error) {
	h := b.alloc()
	b.shaders[h] = &glShader{}
	return h, nil
}

// ShaderSetCode compiles src and replaces the shader's program.
func (b *Backend) ShaderSetCode(sh gpu.Handle, src shader.Source) error {
	s, ok := b.shaders[sh]
	if !ok {
		return fmt.Errorf("shader %d: %w", sh, gpu.ErrUnknownHandle)
	}
	if src.Vertex == "" || src.Fragment == "" {
		return gpu.ErrEmptySource
	}
	program, err := compileProgram(src.Vertex, src.Fragment)
	if err != nil {
		return fmt.Errorf("compiling shader %d: %w", sh, err)
	}
	if s.program != 0 {
		gl.DeleteProgram(s.program)
	}
	s.program = program
	s.uniforms = make(map[string]int32)
	b.log.Info("shader compiled", zap.Uint64("handle", uint64(sh)), zap.Uint32("program", program))
	return nil
}

// MaterialSetShader binds a shader to a material.
func (b *Backend) MaterialSetShader(material, sh gpu.Handle) {
	if m, ok := b.materials[material]; ok {
		m.shader = sh
	}
}

// MaterialSetParam stores a parameter; it reaches the program on the next Bind.
func (b *Backend) MaterialSetParam(material gpu.Handle, name string, value any) {
	m, ok := b.materials[material]
	if !ok {
		return
	}
	switch v := value.(type) {
	case []math.Vec3:
		value = append([]math.Vec3(nil), v...)
	case []texture.Color:
		value = append([]texture.Color(nil), v...)
	}
	m.params[name] = value
}

// Free releases a handle of any kind.
func (b *Backend) Free(h gpu.Handle) {
	if t, ok := b.textures[h]; ok {
		gl.DeleteTextures(1, &t.id)
		delete(b.textures, h)
		return
	}
	if s, ok := b.shaders[h]; ok {
		if s.program != 0 {
			gl.DeleteProgram(s.program)
		}
		delete(b.shaders, h)
		return
	}
	delete(b.materials, h)
}

func (s *glShader) uniform(name string) int32 {
	loc, ok := s.uniforms[name]
	if !ok {
		loc = uniformLocation(s.program, name)
		s.uniforms[name] = loc
	}
	return loc
}

// Bind makes the material's program current and uploads its parameters.
// Texture parameters take consecutive texture units in name order.
func (b *Backend) Bind(material gpu.Handle) error {
	m, ok := b.materials[material]
	if !ok {
		return fmt.Errorf("material %d: %w", material, gpu.ErrUnknownHandle)
	}
	s, ok := b.shaders[m.shader]
	if !ok || s.program == 0 {
		return fmt.Errorf("material %d has no compiled shader", material)
	}
	gl.UseProgram(s.program)

	names := make([]string, 0, len(m.params))
	for name := range m.params {
		names = append(names, name)
	}
	sort.Strings(names)

	var unit uint32
	for _, name := range names {
		loc := s.uniform(name)
		if loc < 0 {
			continue
		}
		switch v := m.params[name].(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case math.Vec3:
			gl.Uniform3f(loc, v.X, v.Y, v.Z)
		case math.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case []math.Vec3:
			if n := min(len(v), shader.MaxLayers); n > 0 {
				gl.Uniform3fv(loc, int32(n), &v[0].X)
			}
		case []texture.Color:
			if n := min(len(v), shader.MaxLayers); n > 0 {
				gl.Uniform4fv(loc, int32(n), &v[0].R)
			}
		case gpu.Handle:
			gl.ActiveTexture(gl.TEXTURE0 + unit)
			if t, ok := b.textures[v]; ok {
				gl.BindTexture(t.target, t.id)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, 0)
			}
			gl.Uniform1i(loc, int32(unit))
			unit++
		}
	}
	gl.ActiveTexture(gl.TEXTURE0)
	return checkError("bind material")
}

// Live returns the number of live textures, shaders and materials.
func (b *Backend) Live() int {
	return len(b.textures) + len(b.shaders) + len(b.materials)
}
