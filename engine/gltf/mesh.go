package gltf

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// positionAttribute is the glTF semantic a primitive cannot be drawn without.
const positionAttribute = "POSITION"

// Attribute binds an accessor to a named vertex input.
type Attribute struct {
	name     string
	accessor *Accessor

	location int32
}

// Name returns the glTF semantic, such as POSITION or TEXCOORD_0.
func (a *Attribute) Name() string { return a.name }

// Accessor returns the vertex data.
func (a *Attribute) Accessor() *Accessor { return a.accessor }

// Location returns the program slot resolved by SetupGL, -1 when the program has none.
func (a *Attribute) Location() int32 { return a.location }

// Primitive is one draw: an ordered attribute list, optional indices, a material and a topology.
type Primitive struct {
	index      int
	mesh       *Mesh
	attributes []*Attribute
	indices    *Accessor
	material   *Material
	mode       device.PrimitiveMode

	dev device.Device
}

func newPrimitive(mesh *Mesh, index int, src loader.GLTFPrimitive, accessors []*Accessor, materials []*Material) *Primitive {
	p := &Primitive{
		index:    index,
		mesh:     mesh,
		material: DefaultMaterial(),
		mode:     device.Triangles,
	}
	if src.Indices != nil {
		p.indices = accessors[*src.Indices]
	}
	if src.Material != nil {
		p.material = materials[*src.Material]
	}
	if src.Mode != nil {
		p.mode = device.PrimitiveMode(*src.Mode)
	}

	names := make([]string, 0, len(src.Attributes))
	for name := range src.Attributes {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p.attributes = append(p.attributes, &Attribute{
			name:     name,
			accessor: accessors[src.Attributes[name]],
			location: -1,
		})
	}
	return p
}

// Attributes returns the vertex inputs ordered by name.
func (p *Primitive) Attributes() []*Attribute { return p.attributes }

// Attribute returns the input with the given semantic, or nil.
func (p *Primitive) Attribute(name string) *Attribute {
	for _, a := range p.attributes {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Indices returns the index accessor, nil for a non-indexed primitive.
func (p *Primitive) Indices() *Accessor { return p.indices }

// Material returns the material, the default material when none was authored.
func (p *Primitive) Material() *Material { return p.material }

// Mode returns the topology.
func (p *Primitive) Mode() device.PrimitiveMode { return p.mode }

// Load loads every accessor and the material concurrently. A failed fetch does not cancel its
// siblings, every load runs to completion before the first error is returned.
//
// Parameters:
//   - ctx: cancels the fetches
//
// Returns:
//   - error: the first load error
func (p *Primitive) Load(ctx context.Context) error {
	var g errgroup.Group
	if p.indices != nil {
		g.Go(func() error { return p.indices.Load(ctx) })
	}
	for _, a := range p.attributes {
		g.Go(func() error { return a.accessor.Load(ctx) })
	}
	g.Go(func() error { return p.material.Load(ctx) })
	return g.Wait()
}

// Loaded reports whether every accessor and the material are loaded.
func (p *Primitive) Loaded() bool {
	if p.indices != nil && !p.indices.Loaded() {
		return false
	}
	for _, a := range p.attributes {
		if !a.accessor.Loaded() {
			return false
		}
	}
	return p.material.Loaded()
}

// SetupGL uploads the index and vertex views, sets up the material, and resolves the program
// slot of every attribute. Attributes the program does not declare are skipped, except POSITION.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - error: ErrNotLoaded, ErrMissingPosition, or an upload or build error
func (p *Primitive) SetupGL(dev device.Device) error {
	if !p.Loaded() {
		return fmt.Errorf("mesh %q primitive %d: %w", p.mesh.name, p.index, ErrNotLoaded)
	}
	if p.indices != nil {
		if err := p.indices.view.SetupGL(dev, device.ElementArrayBuffer); err != nil {
			return err
		}
	}
	if err := p.material.SetupGL(dev); err != nil {
		return err
	}
	prog, err := p.material.Program(dev)
	if err != nil {
		return err
	}

	logger := p.mesh.doc.logger
	for _, a := range p.attributes {
		a.location = dev.AttribLocation(prog, strings.ToLower(a.name))
		if a.location < 0 {
			if a.name == positionAttribute {
				return fmt.Errorf("mesh %q primitive %d: %w", p.mesh.name, p.index, ErrMissingPosition)
			}
			logger.Warn("attribute not used by program", "mesh", p.mesh.id, "primitive", p.index,
				"attribute", a.name, "material", p.material.name)
			continue
		}
		if err := a.accessor.view.SetupGL(dev, device.ArrayBuffer); err != nil {
			return err
		}
	}
	p.dev = dev
	return nil
}

// Bound reports whether SetupGL completed.
func (p *Primitive) Bound() bool { return p.dev != nil }

// Draw binds every resolved attribute and issues the draw call. The material program must
// already be current.
//
// Parameters:
//   - dev: the device the primitive was set up on
//
// Returns:
//   - error: ErrNotBound before SetupGL
func (p *Primitive) Draw(dev device.Device) error {
	if p.dev == nil || p.dev != dev {
		return fmt.Errorf("mesh %q primitive %d: %w", p.mesh.name, p.index, ErrNotBound)
	}

	count := 0
	for _, a := range p.attributes {
		if a.location < 0 {
			continue
		}
		acc := a.accessor
		dev.BindBuffer(device.ArrayBuffer, acc.view.handle)
		dev.EnableVertexAttribArray(uint32(a.location))
		dev.VertexAttribPointer(uint32(a.location), acc.components, acc.componentType, acc.normalized,
			acc.view.byteStride, acc.byteOffset)
		if a.name == positionAttribute {
			count = acc.count
		}
	}

	if p.indices != nil {
		dev.BindBuffer(device.ElementArrayBuffer, p.indices.view.handle)
		dev.DrawElements(p.mode, p.indices.count, p.indices.componentType, p.indices.byteOffset)
		return nil
	}
	dev.DrawArrays(p.mode, 0, count)
	return nil
}

// Mesh is an ordered list of primitives drawn with the transform of the node holding it.
type Mesh struct {
	id         uuid.UUID
	index      int
	name       string
	primitives []*Primitive
	doc        *document
}

func newMesh(doc *document, index int, src loader.GLTFMesh, accessors []*Accessor, materials []*Material) *Mesh {
	m := &Mesh{
		id:    uuid.New(),
		index: index,
		name:  src.Name,
		doc:   doc,
	}
	for i, p := range src.Primitives {
		m.primitives = append(m.primitives, newPrimitive(m, i, p, accessors, materials))
	}
	return m
}

// ID returns the random identity assigned at parse.
func (m *Mesh) ID() uuid.UUID { return m.id }

// Index returns the position of the mesh in its document.
func (m *Mesh) Index() int { return m.index }

// Name returns the authored name.
func (m *Mesh) Name() string { return m.name }

// Primitives returns the primitives in authored order.
func (m *Mesh) Primitives() []*Primitive { return m.primitives }

// Load loads every primitive concurrently.
func (m *Mesh) Load(ctx context.Context) error {
	var g errgroup.Group
	for _, p := range m.primitives {
		g.Go(func() error { return p.Load(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("mesh %q: %w", m.name, err)
	}
	return nil
}

// Loaded reports whether every primitive is loaded.
func (m *Mesh) Loaded() bool {
	for _, p := range m.primitives {
		if !p.Loaded() {
			return false
		}
	}
	return true
}

// SetupGL sets up every primitive in order.
func (m *Mesh) SetupGL(dev device.Device) error {
	for _, p := range m.primitives {
		if err := p.SetupGL(dev); err != nil {
			return err
		}
	}
	return nil
}
