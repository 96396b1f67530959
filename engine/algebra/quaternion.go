package algebra

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Quaternion is a change-tracked rotation stored in glTF order (x, y, z, w).
type Quaternion struct {
	tracker
	q mgl32.Quat
}

var _ Array = &Quaternion{}

// NewQuaternion creates a quaternion from explicit components. The new value starts dirty.
//
// Parameters:
//   - x, y, z: the vector part
//   - w: the scalar part
//
// Returns:
//   - *Quaternion: the new quaternion
func NewQuaternion(x, y, z, w float32) *Quaternion {
	q := &Quaternion{q: mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}}
	q.touch()
	return q
}

// NewQuaternionFrom creates a quaternion from a slice of exactly four values in x, y, z, w order.
//
// Parameters:
//   - vals: the component list
//
// Returns:
//   - *Quaternion: the new quaternion
//   - error: error if vals does not hold exactly four values
func NewQuaternionFrom(vals []float32) (*Quaternion, error) {
	if len(vals) != 4 {
		return nil, fmt.Errorf("quaternion needs 4 components, got %d", len(vals))
	}
	return NewQuaternion(vals[0], vals[1], vals[2], vals[3]), nil
}

// IdentityQuaternion returns the no-rotation quaternion (0, 0, 0, 1).
func IdentityQuaternion() *Quaternion {
	return NewQuaternion(0, 0, 0, 1)
}

// QuaternionFromAxisAngle builds the rotation of angle radians about axis.
// The axis is used as given. A zero angle always yields the identity.
//
// Parameters:
//   - angle: rotation angle in radians
//   - axis: rotation axis
//
// Returns:
//   - *Quaternion: the rotation
func QuaternionFromAxisAngle(angle float32, axis *Vector3) *Quaternion {
	if angle == 0 {
		return IdentityQuaternion()
	}
	s := float32(math.Sin(float64(angle) / 2))
	c := float32(math.Cos(float64(angle) / 2))
	return NewQuaternion(axis.X()*s, axis.Y()*s, axis.Z()*s, c)
}

func (q *Quaternion) Len() int { return 4 }

func (q *Quaternion) At(i int) float32 {
	if i == 3 {
		return q.q.W
	}
	return q.q.V[i]
}

func (q *Quaternion) SetAt(i int, val float32) {
	if i == 3 {
		q.q.W = val
	} else {
		q.q.V[i] = val
	}
	q.touch()
}

func (q *Quaternion) X() float32 { return q.q.V[0] }
func (q *Quaternion) Y() float32 { return q.q.V[1] }
func (q *Quaternion) Z() float32 { return q.q.V[2] }
func (q *Quaternion) W() float32 { return q.q.W }

// Set assigns all four components.
func (q *Quaternion) Set(x, y, z, w float32) *Quaternion {
	q.q = mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
	q.touch()
	return q
}

// SetQuat assigns the components from an mgl32 quaternion.
func (q *Quaternion) SetQuat(o mgl32.Quat) *Quaternion {
	q.q = o
	q.touch()
	return q
}

// Quat returns the value as an mgl32 quaternion.
func (q *Quaternion) Quat() mgl32.Quat { return q.q }

// Elements returns the components in x, y, z, w order.
func (q *Quaternion) Elements() [4]float32 {
	return [4]float32{q.q.V[0], q.q.V[1], q.q.V[2], q.q.W}
}

// Clone returns an independent copy. The copy starts dirty.
func (q *Quaternion) Clone() *Quaternion {
	return NewQuaternion(q.q.V[0], q.q.V[1], q.q.V[2], q.q.W)
}

// Mul returns a new quaternion holding q × o.
func (q *Quaternion) Mul(o *Quaternion) *Quaternion {
	r := &Quaternion{q: q.q.Mul(o.q)}
	r.touch()
	return r
}

// Rotate composes an axis-angle rotation into the receiver.
// Local rotations post-multiply (q = q × rot) and act in the object's own frame.
// Global rotations pre-multiply (q = rot × q) and act in the parent frame.
//
// Parameters:
//   - angle: rotation angle in radians
//   - axis: rotation axis
//   - global: true to rotate about the parent frame
//
// Returns:
//   - *Quaternion: the receiver
func (q *Quaternion) Rotate(angle float32, axis *Vector3, global bool) *Quaternion {
	rot := QuaternionFromAxisAngle(angle, axis).q
	if global {
		return q.SetQuat(rot.Mul(q.q))
	}
	return q.SetQuat(q.q.Mul(rot))
}

// Magnitude returns the quaternion norm.
func (q *Quaternion) Magnitude() float32 { return q.q.Len() }

// Normalize scales the quaternion to unit length in place.
func (q *Quaternion) Normalize() *Quaternion {
	m := q.Magnitude()
	return q.Set(q.q.V[0]/m, q.q.V[1]/m, q.q.V[2]/m, q.q.W/m)
}
