package gltf

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
)

// DefaultMaterialName names the material used by primitives that do not reference one.
const DefaultMaterialName = "DEFAULT"

var (
	defaultMaterial     *Material
	defaultMaterialOnce sync.Once
)

// DefaultMaterial returns the process-wide material built from the default shaders with no texture.
// Its programs survive Document.Release.
func DefaultMaterial() *Material {
	defaultMaterialOnce.Do(func() {
		defaultMaterial = newMaterial(-1, DefaultMaterialName, shader.DefaultVertex(), shader.DefaultFragment())
	})
	return defaultMaterial
}

// materialBinding is the program a material built on one device plus its uniform slots.
type materialBinding struct {
	program  device.Program
	uniforms shader.Uniforms
}

// Material couples a shader program with an optional base colour texture.
// One program is built per device the material is set up on.
type Material struct {
	index     int
	name      string
	baseColor [4]float32
	texture   *Texture

	vertex   shader.Shader
	fragment shader.Shader

	mu       sync.Mutex
	bindings map[device.Device]*materialBinding
}

func newMaterial(index int, name string, vertex, fragment shader.Shader) *Material {
	return &Material{
		index:     index,
		name:      name,
		baseColor: [4]float32{1, 1, 1, 1},
		vertex:    vertex,
		fragment:  fragment,
		bindings:  make(map[device.Device]*materialBinding),
	}
}

func newMaterialFrom(doc *document, index int, src loader.GLTFMaterial, textures []*Texture) *Material {
	m := newMaterial(index, src.Name, doc.vertexShader, doc.fragmentShader)
	pbr := src.PbrMetallicRoughness
	if pbr == nil {
		return m
	}
	if len(pbr.BaseColorFactor) == 4 {
		copy(m.baseColor[:], pbr.BaseColorFactor)
	}
	if pbr.BaseColorTexture != nil {
		m.texture = textures[pbr.BaseColorTexture.Index]
		if set := pbr.BaseColorTexture.TexCoord; set != 0 {
			doc.logger.Warn("material samples a texcoord set other than 0, shaders read TEXCOORD_0",
				"material", index, "texCoord", set)
		}
	}
	return m
}

// Index returns the position of the material in its document, or -1 for the default material.
func (m *Material) Index() int { return m.index }

// Name returns the authored name.
func (m *Material) Name() string { return m.name }

// BaseColorFactor returns the authored base colour, white when absent.
func (m *Material) BaseColorFactor() [4]float32 { return m.baseColor }

// Texture returns the base colour texture, nil when the material is untextured.
func (m *Material) Texture() *Texture { return m.texture }

// IsDefault reports whether m is the process-wide default material.
func (m *Material) IsDefault() bool { return m == DefaultMaterial() }

// Load loads the base colour texture, loading the view of a buffer-backed image first.
//
// Parameters:
//   - ctx: cancels the fetches
//
// Returns:
//   - error: error if the texture cannot be loaded
func (m *Material) Load(ctx context.Context) error {
	if m.texture == nil {
		return nil
	}
	if view := m.texture.image.view; view != nil {
		if err := view.Load(ctx); err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
	}
	if err := m.texture.Load(ctx); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	return nil
}

// Loaded reports whether the texture, if any, is loaded.
func (m *Material) Loaded() bool {
	return m.texture == nil || m.texture.Loaded()
}

// SetupGL builds the material program on dev, uploads the texture and caches the uniform slots.
// Setting up an already bound material on the same device does nothing.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - error: ErrNotLoaded, or ErrDevice joined with the shader build error
func (m *Material) SetupGL(dev device.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[dev]; ok {
		return nil
	}

	if m.texture != nil {
		if err := m.texture.SetupGL(dev); err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
	}
	b, err := m.build(dev)
	if err != nil {
		return err
	}
	m.bindings[dev] = b
	return nil
}

// Rebuild compiles and links the shaders again on dev, replacing and deleting the previous program.
//
// Parameters:
//   - dev: the device the material was set up on
//
// Returns:
//   - error: ErrNotBound if the material has no program on dev, or the build error
func (m *Material) Rebuild(dev device.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.bindings[dev]
	if !ok {
		return fmt.Errorf("material %q: %w", m.name, ErrNotBound)
	}
	b, err := m.build(dev)
	if err != nil {
		return err
	}
	dev.DeleteProgram(old.program)
	m.bindings[dev] = b
	return nil
}

func (m *Material) build(dev device.Device) (*materialBinding, error) {
	prog, err := shader.Build(dev, m.vertex, m.fragment)
	if err != nil {
		return nil, fmt.Errorf("material %q: %w: %w", m.name, ErrDevice, err)
	}
	return &materialBinding{
		program:  prog,
		uniforms: shader.ResolveUniforms(dev, prog, m.texture != nil),
	}, nil
}

// Program returns the program built on dev.
//
// Returns:
//   - device.Program: the program
//   - error: ErrNotBound before SetupGL
func (m *Material) Program(dev device.Device) (device.Program, error) {
	b, err := m.binding(dev)
	if err != nil {
		return 0, err
	}
	return b.program, nil
}

// Uniforms returns the uniform slots of the program built on dev.
//
// Returns:
//   - shader.Uniforms: the slots
//   - error: ErrNotBound before SetupGL
func (m *Material) Uniforms(dev device.Device) (shader.Uniforms, error) {
	b, err := m.binding(dev)
	if err != nil {
		return shader.Uniforms{}, err
	}
	return b.uniforms, nil
}

func (m *Material) binding(dev device.Device) (*materialBinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[dev]
	if !ok {
		return nil, fmt.Errorf("material %q: %w", m.name, ErrNotBound)
	}
	return b, nil
}

// release deletes the program built on dev and the texture upload.
func (m *Material) release(dev device.Device) {
	m.mu.Lock()
	if b, ok := m.bindings[dev]; ok {
		dev.DeleteProgram(b.program)
		delete(m.bindings, dev)
	}
	m.mu.Unlock()
	if m.texture != nil {
		m.texture.release(dev)
	}
}
