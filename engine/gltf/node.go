package gltf

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/engine/algebra"
	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Node is an element of the scene hierarchy. Its local transform comes from translation,
// rotation and scale, or from an explicit matrix. Local and global matrices are cached and only
// recomputed when a generation they were built from has moved.
type Node struct {
	id    uuid.UUID
	index int
	name  string

	translation *algebra.Vector3
	rotation    *algebra.Quaternion
	scale       *algebra.Vector3
	matrix      *algebra.Matrix4

	parent   *Node
	children []*Node
	mesh     *Mesh
	skin     *Skin
	camera   *Camera

	local       *algebra.Matrix4
	localValid  bool
	seenT       uint64
	seenR       uint64
	seenS       uint64
	seenM       uint64
	global      *algebra.Matrix4
	globalValid bool
	seenLocal   uint64
	seenParent  uint64

	// recomputes counts global matrix rebuilds.
	recomputes int
}

// NewNode creates a free-standing node with an identity transform, such as a light position.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the node
func NewNode(name string) *Node {
	return &Node{
		id:          uuid.New(),
		index:       -1,
		name:        name,
		translation: algebra.NewVector3(0, 0, 0),
		rotation:    algebra.IdentityQuaternion(),
		scale:       algebra.NewVector3(1, 1, 1),
		local:       algebra.NewMatrix4(),
		global:      algebra.NewMatrix4(),
	}
}

func newNodeFrom(index int, src loader.GLTFNode) *Node {
	n := NewNode(src.Name)
	n.index = index
	if src.Translation != nil {
		n.translation.Set(src.Translation[0], src.Translation[1], src.Translation[2])
	}
	if src.Rotation != nil {
		n.rotation.Set(src.Rotation[0], src.Rotation[1], src.Rotation[2], src.Rotation[3])
	}
	if src.Scale != nil {
		n.scale.Set(src.Scale[0], src.Scale[1], src.Scale[2])
	}
	if src.Matrix != nil {
		n.matrix, _ = algebra.NewMatrix4From(src.Matrix)
		n.decompose()
	}
	return n
}

// decompose derives translation, rotation and scale from the explicit matrix and marks them as
// seen, so the first Local read copies the matrix.
func (n *Node) decompose() {
	m := n.matrix.Mat4()
	n.translation.Set(m[12], m[13], m[14])
	sx, sy, sz := m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()
	n.scale.Set(sx, sy, sz)
	if sx != 0 && sy != 0 && sz != 0 {
		rot := mgl32.Mat4FromCols(m.Col(0).Mul(1/sx), m.Col(1).Mul(1/sy), m.Col(2).Mul(1/sz), mgl32.Vec4{0, 0, 0, 1})
		n.rotation.SetQuat(mgl32.Mat4ToQuat(rot))
	}
	n.seenT, n.seenR, n.seenS = n.translation.Generation(), n.rotation.Generation(), n.scale.Generation()
}

// ID returns the random identity assigned at creation.
func (n *Node) ID() uuid.UUID { return n.id }

// Index returns the position of the node in its document, or -1 for a free-standing node.
func (n *Node) Index() int { return n.index }

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in authored order.
func (n *Node) Children() []*Node { return n.children }

// Mesh returns the attached mesh, or nil.
func (n *Node) Mesh() *Mesh { return n.mesh }

// Skin returns the attached skin, or nil.
func (n *Node) Skin() *Skin { return n.skin }

// Camera returns the attached camera, or nil.
func (n *Node) Camera() *Camera { return n.camera }

// Translation returns the mutable translation. Mutations are picked up by the next Local read.
func (n *Node) Translation() *algebra.Vector3 { return n.translation }

// Rotation returns the mutable rotation.
func (n *Node) Rotation() *algebra.Quaternion { return n.rotation }

// Scale returns the mutable scale.
func (n *Node) Scale() *algebra.Vector3 { return n.scale }

// Matrix returns the explicit local matrix, nil when the node was authored with TRS.
func (n *Node) Matrix() *algebra.Matrix4 { return n.matrix }

// SetMatrix replaces the explicit local matrix. It takes effect on the next Local read unless
// translation, rotation or scale are also changed before then.
func (n *Node) SetMatrix(m *algebra.Matrix4) {
	if n.matrix == nil {
		n.matrix = algebra.NewMatrix4()
	}
	n.matrix.Set(m)
}

// Rotate composes an axis-angle rotation into the node rotation.
//
// Parameters:
//   - angle: rotation in radians
//   - axis: rotation axis
//   - global: true to rotate about the parent frame instead of the node's own
func (n *Node) Rotate(angle float32, axis *algebra.Vector3, global bool) {
	n.rotation.Rotate(angle, axis, global)
}

func (n *Node) trsChanged() bool {
	return n.translation.Generation() != n.seenT ||
		n.rotation.Generation() != n.seenR ||
		n.scale.Generation() != n.seenS
}

func (n *Node) matrixChanged() bool {
	return n.matrix != nil && n.matrix.Generation() != n.seenM
}

// Dirty reports whether the node's own transform changed since Local was last computed.
func (n *Node) Dirty() bool {
	return !n.localValid || n.trsChanged() || n.matrixChanged()
}

// GlobalDirty reports whether the next Global read recomputes, because this node or an
// ancestor changed.
func (n *Node) GlobalDirty() bool {
	if n.Dirty() || !n.globalValid || n.seenLocal != n.local.Generation() {
		return true
	}
	if n.parent == nil {
		return false
	}
	return n.parent.GlobalDirty() || n.seenParent != n.parent.global.Generation()
}

// Local returns the node transform relative to its parent. The returned matrix is owned by the
// node and must not be modified.
//
// Returns:
//   - *algebra.Matrix4: T·R·S, or the explicit matrix
func (n *Node) Local() *algebra.Matrix4 {
	trs, mat := n.trsChanged(), n.matrixChanged()
	if n.localValid && !trs && !mat {
		return n.local
	}

	if trs || n.matrix == nil {
		t, s := n.translation.Vec3(), n.scale.Vec3()
		n.local.SetMat4(mgl32.Translate3D(t[0], t[1], t[2]).
			Mul4(n.rotation.Quat().Normalize().Mat4()).
			Mul4(mgl32.Scale3D(s[0], s[1], s[2])))
	} else {
		n.local.Set(n.matrix)
	}

	n.seenT, n.seenR, n.seenS = n.translation.Generation(), n.rotation.Generation(), n.scale.Generation()
	n.translation.ClearDirty()
	n.rotation.ClearDirty()
	n.scale.ClearDirty()
	if n.matrix != nil {
		n.seenM = n.matrix.Generation()
		n.matrix.ClearDirty()
	}
	n.localValid = true
	return n.local
}

// Global returns the node transform in scene space, parent.Global × Local for a child. Reads
// without an intervening mutation return the cached matrix. The returned matrix is owned by the
// node and must not be modified.
//
// Returns:
//   - *algebra.Matrix4: the world matrix
func (n *Node) Global() *algebra.Matrix4 {
	local := n.Local()
	if n.parent == nil {
		if n.globalValid && n.seenLocal == local.Generation() {
			return n.global
		}
		n.global.Set(local)
	} else {
		pg := n.parent.Global()
		if n.globalValid && n.seenLocal == local.Generation() && n.seenParent == pg.Generation() {
			return n.global
		}
		algebra.MulMatrix4(pg, local, n.global)
		n.seenParent = pg.Generation()
	}
	n.seenLocal = local.Generation()
	n.globalValid = true
	n.recomputes++
	return n.global
}

// FindChildByName searches the subtree below n depth first.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the first matching descendant, or nil
func (n *Node) FindChildByName(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if found := c.FindChildByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Load loads the mesh, the skin and every child concurrently. Siblings of a failed load still
// run to completion.
//
// Parameters:
//   - ctx: cancels the fetches
//
// Returns:
//   - error: the first load error
func (n *Node) Load(ctx context.Context) error {
	var g errgroup.Group
	if n.mesh != nil {
		g.Go(func() error { return n.mesh.Load(ctx) })
	}
	if n.skin != nil {
		g.Go(func() error { return n.skin.Load(ctx) })
	}
	for _, c := range n.children {
		g.Go(func() error { return c.Load(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("node %q: %w", n.name, err)
	}
	return nil
}

// Loaded reports whether the mesh, skin and every descendant are loaded.
func (n *Node) Loaded() bool {
	if n.mesh != nil && !n.mesh.Loaded() {
		return false
	}
	if n.skin != nil && !n.skin.Loaded() {
		return false
	}
	for _, c := range n.children {
		if !c.Loaded() {
			return false
		}
	}
	return true
}

// SetupGL sets up the mesh of n and of every descendant.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - error: ErrNotLoaded if Load has not completed, or the first setup error
func (n *Node) SetupGL(dev device.Device) error {
	if !n.Loaded() {
		return fmt.Errorf("node %q: %w", n.name, ErrNotLoaded)
	}
	if n.mesh != nil {
		if err := n.mesh.SetupGL(dev); err != nil {
			return fmt.Errorf("node %q: %w", n.name, err)
		}
	}
	for _, c := range n.children {
		if err := c.SetupGL(dev); err != nil {
			return err
		}
	}
	return nil
}
