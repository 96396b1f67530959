package gltf

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gltf/engine/algebra"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// CorrectionNodeName is the name exporters give the extra node that reorients a camera to
// look down -Z. When the camera sits on such a node, the node's parent is the one users move.
const CorrectionNodeName = "Camera_Orientation"

// Default perspective parameters used when a document has no camera.
const (
	DefaultYfov  = math.Pi / 3
	DefaultZnear = 0.01
	DefaultZfar  = 100
)

// Camera is a perspective or orthographic projection attached to a node.
type Camera struct {
	id    uuid.UUID
	index int
	name  string
	typ   string

	yfov, znear float32
	zfar        *float32
	aspect      float32
	xmag, ymag  float32

	correction *Node
	parent     *Node

	projection *algebra.Matrix4
	projValid  bool
	view       *algebra.Matrix4
	viewValid  bool
	seenCorr   uint64
}

// NewPerspectiveCamera creates a detached perspective camera.
//
// Parameters:
//   - name: the camera name
//   - yfov: vertical field of view in radians
//   - znear: near clip distance
//   - zfar: far clip distance, nil for an infinite projection
//
// Returns:
//   - *Camera: the camera, with aspect 1 until SetAspect is called
func NewPerspectiveCamera(name string, yfov, znear float32, zfar *float32) *Camera {
	c := newCamera(-1, name, loader.CameraTypePerspective)
	c.yfov, c.znear, c.zfar = yfov, znear, zfar
	return c
}

// NewOrthographicCamera creates a detached orthographic camera from half extents.
func NewOrthographicCamera(name string, xmag, ymag, znear, zfar float32) *Camera {
	c := newCamera(-1, name, loader.CameraTypeOrthographic)
	c.xmag, c.ymag, c.znear, c.zfar = xmag, ymag, znear, &zfar
	return c
}

// DefaultCamera returns a new perspective camera with a 60 degree field of view, for documents
// that carry no camera of their own.
func DefaultCamera() *Camera {
	zfar := float32(DefaultZfar)
	return NewPerspectiveCamera("default", DefaultYfov, DefaultZnear, &zfar)
}

func newCamera(index int, name, typ string) *Camera {
	return &Camera{
		id:         uuid.New(),
		index:      index,
		name:       name,
		typ:        typ,
		aspect:     1,
		projection: algebra.NewMatrix4(),
		view:       algebra.NewMatrix4(),
	}
}

func newCameraFrom(index int, src loader.GLTFCamera) *Camera {
	c := newCamera(index, src.Name, src.Type)
	switch src.Type {
	case loader.CameraTypePerspective:
		p := src.Perspective
		c.yfov, c.znear, c.zfar = p.Yfov, p.Znear, p.Zfar
		if p.AspectRatio != nil {
			c.aspect = *p.AspectRatio
		}
	case loader.CameraTypeOrthographic:
		o := src.Orthographic
		zfar := o.Zfar
		c.xmag, c.ymag, c.znear, c.zfar = o.Xmag, o.Ymag, o.Znear, &zfar
	}
	return c
}

// attach records the node carrying the camera and derives the effective parent.
func (c *Camera) attach(n *Node) {
	c.correction = n
	c.parent = n
	if n.name == CorrectionNodeName {
		c.parent = n.parent
	}
	c.viewValid = false
}

// ID returns the random identity assigned at creation.
func (c *Camera) ID() uuid.UUID { return c.id }

// Index returns the position of the camera in its document, or -1 for a detached camera.
func (c *Camera) Index() int { return c.index }

// Name returns the camera name.
func (c *Camera) Name() string { return c.name }

// Type returns loader.CameraTypePerspective or loader.CameraTypeOrthographic.
func (c *Camera) Type() string { return c.typ }

// CorrectionNode returns the node carrying the camera, nil for a detached camera.
func (c *Camera) CorrectionNode() *Node { return c.correction }

// Parent returns the node that positions the camera: the parent of a correction node, or the
// carrying node itself.
func (c *Camera) Parent() *Node { return c.parent }

// Aspect returns the width / height ratio used by perspective projections.
func (c *Camera) Aspect() float32 { return c.aspect }

// SetAspect sets the viewport ratio. Non-positive values are ignored.
func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 || aspect == c.aspect {
		return
	}
	c.aspect = aspect
	c.projValid = false
}

// Projection returns the projection matrix. Perspective cameras without a far plane get an
// infinite projection.
//
// Returns:
//   - *algebra.Matrix4: the projection, owned by the camera
func (c *Camera) Projection() *algebra.Matrix4 {
	if c.projValid {
		return c.projection
	}
	if c.typ == loader.CameraTypeOrthographic {
		_ = c.projection.SetOrtho(-c.xmag, c.xmag, -c.ymag, c.ymag, c.znear, *c.zfar)
	} else {
		fovy := mgl32.RadToDeg(c.yfov)
		if c.zfar == nil {
			_ = c.projection.SetInfinitePerspective(fovy, c.aspect, c.znear)
		} else {
			_ = c.projection.SetPerspective(fovy, c.aspect, c.znear, *c.zfar)
		}
	}
	c.projValid = true
	return c.projection
}

// View returns the inverse of the correction node's global matrix. It is recomputed only when
// that matrix changed. A detached camera has an identity view.
//
// Returns:
//   - *algebra.Matrix4: the view matrix, owned by the camera
func (c *Camera) View() *algebra.Matrix4 {
	if c.correction == nil {
		return c.view
	}
	g := c.correction.Global()
	if c.viewValid && c.seenCorr == g.Generation() {
		return c.view
	}
	g.InverseInto(c.view)
	c.seenCorr = g.Generation()
	c.viewValid = true
	return c.view
}

// Position returns the global translation of the effective parent.
func (c *Camera) Position() *algebra.Vector3 {
	n := c.parent
	if n == nil {
		n = c.correction
	}
	if n == nil {
		return algebra.NewVector3(0, 0, 0)
	}
	return n.Global().Translation()
}

// Orientation returns the correction rotation composed with the parent rotation, or the parent
// rotation alone when the camera sits directly on it.
//
// Returns:
//   - *algebra.Quaternion: the orientation, nil when the camera has no parent
func (c *Camera) Orientation() *algebra.Quaternion {
	if c.parent == nil {
		return nil
	}
	if c.correction != c.parent {
		return c.correction.rotation.Mul(c.parent.rotation)
	}
	return c.parent.rotation.Clone()
}

func (c *Camera) axis(v mgl32.Vec3) *algebra.Vector3 {
	q := c.Orientation()
	if q == nil {
		return algebra.NewVector3(v[0], v[1], v[2])
	}
	r := q.Quat().Normalize().Rotate(v)
	return algebra.NewVector3(r[0], r[1], r[2])
}

// Forward returns +Z rotated by the camera orientation, or +Z when the camera has no parent.
func (c *Camera) Forward() *algebra.Vector3 { return c.axis(mgl32.Vec3{0, 0, 1}) }

// Up returns +Y rotated by the camera orientation, or +Y when the camera has no parent.
func (c *Camera) Up() *algebra.Vector3 { return c.axis(mgl32.Vec3{0, 1, 0}) }

// Right returns +X rotated by the camera orientation, or +X when the camera has no parent.
func (c *Camera) Right() *algebra.Vector3 { return c.axis(mgl32.Vec3{1, 0, 0}) }
