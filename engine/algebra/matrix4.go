package algebra

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNullFrustum is returned when projection parameters describe an empty volume.
var ErrNullFrustum = errors.New("null frustum")

// Matrix4 is a change-tracked 4x4 transform. Elements are stored column-major, the layout
// glTF uses, so the translation lives at indices 12, 13 and 14.
type Matrix4 struct {
	tracker
	m mgl32.Mat4
}

var _ Array = &Matrix4{}

// NewMatrix4 creates an identity matrix. The new value starts dirty.
//
// Returns:
//   - *Matrix4: the identity matrix
func NewMatrix4() *Matrix4 {
	m := &Matrix4{m: mgl32.Ident4()}
	m.touch()
	return m
}

// NewMatrix4From creates a matrix from exactly sixteen column-major values.
//
// Parameters:
//   - vals: the element list
//
// Returns:
//   - *Matrix4: the new matrix
//   - error: error if vals does not hold exactly sixteen values
func NewMatrix4From(vals []float32) (*Matrix4, error) {
	if len(vals) != 16 {
		return nil, fmt.Errorf("matrix4 needs 16 elements, got %d", len(vals))
	}
	m := &Matrix4{}
	copy(m.m[:], vals)
	m.touch()
	return m, nil
}

// NewMatrix4FromMat4 wraps an mgl32 matrix.
func NewMatrix4FromMat4(src mgl32.Mat4) *Matrix4 {
	m := &Matrix4{m: src}
	m.touch()
	return m
}

func (m *Matrix4) Len() int { return 16 }

func (m *Matrix4) At(i int) float32 { return m.m[i] }

func (m *Matrix4) SetAt(i int, val float32) {
	m.m[i] = val
	m.touch()
}

// Mat4 returns the value as an mgl32 matrix.
func (m *Matrix4) Mat4() mgl32.Mat4 { return m.m }

// Elements returns a copy of the sixteen elements.
func (m *Matrix4) Elements() [16]float32 { return m.m }

// Slice returns the elements as a freshly allocated slice.
func (m *Matrix4) Slice() []float32 {
	out := make([]float32, 16)
	copy(out, m.m[:])
	return out
}

// Set copies src into the receiver.
func (m *Matrix4) Set(src *Matrix4) *Matrix4 {
	m.m = src.m
	m.touch()
	return m
}

// SetMat4 assigns the elements from an mgl32 matrix.
func (m *Matrix4) SetMat4(src mgl32.Mat4) *Matrix4 {
	m.m = src
	m.touch()
	return m
}

// SetElements copies up to sixteen values into the receiver.
func (m *Matrix4) SetElements(vals []float32) *Matrix4 {
	copy(m.m[:], vals)
	m.touch()
	return m
}

// Clone returns an independent copy. The copy starts dirty.
func (m *Matrix4) Clone() *Matrix4 {
	return NewMatrix4FromMat4(m.m)
}

// Identity resets the receiver to the identity matrix.
func (m *Matrix4) Identity() *Matrix4 {
	return m.SetMat4(mgl32.Ident4())
}

// Add adds o element-wise in place.
func (m *Matrix4) Add(o *Matrix4) *Matrix4 {
	return m.SetMat4(m.m.Add(o.m))
}

// Sub subtracts o element-wise in place.
func (m *Matrix4) Sub(o *Matrix4) *Matrix4 {
	return m.SetMat4(m.m.Sub(o.m))
}

// AddInto writes m[i] + o[i] into dst[i] for every column-major element from offset on. A nil
// dst writes to the receiver.
func (m *Matrix4) AddInto(o, dst Array, offset int) error {
	return combine(m, o, dst, offset, 1)
}

// SubInto writes m[i] - o[i] into dst[i] from element offset on.
func (m *Matrix4) SubInto(o, dst Array, offset int) error {
	return combine(m, o, dst, offset, -1)
}

// Mul post-multiplies the receiver by rhs in place (m = m × rhs).
func (m *Matrix4) Mul(rhs *Matrix4) *Matrix4 {
	return m.SetMat4(m.m.Mul4(rhs.m))
}

// MulMatrix4 writes a × b into dst and returns dst. dst may alias a or b.
//
// Parameters:
//   - a: left operand
//   - b: right operand
//   - dst: destination matrix
//
// Returns:
//   - *Matrix4: dst
func MulMatrix4(a, b, dst *Matrix4) *Matrix4 {
	return dst.SetMat4(a.m.Mul4(b.m))
}

// MulVec3 transforms a point (w = 1) and returns the result as a new vector.
func (m *Matrix4) MulVec3(v *Vector3) *Vector3 {
	r := m.m.Mul4x1(v.v.Vec4(1))
	return NewVector3(r[0], r[1], r[2])
}

// MulVec4 transforms v and returns the result as a new vector.
func (m *Matrix4) MulVec4(v *Vector4) *Vector4 {
	r := m.m.Mul4x1(v.v)
	return NewVector4(r[0], r[1], r[2], r[3])
}

// Translation returns the translation column.
func (m *Matrix4) Translation() *Vector3 {
	return NewVector3(m.m[12], m.m[13], m.m[14])
}

// SetTranslate replaces the receiver with a translation matrix.
func (m *Matrix4) SetTranslate(x, y, z float32) *Matrix4 {
	return m.SetMat4(mgl32.Translate3D(x, y, z))
}

// Translate post-multiplies a translation.
func (m *Matrix4) Translate(x, y, z float32) *Matrix4 {
	return m.SetMat4(m.m.Mul4(mgl32.Translate3D(x, y, z)))
}

// SetScale replaces the receiver with a scale matrix.
func (m *Matrix4) SetScale(x, y, z float32) *Matrix4 {
	return m.SetMat4(mgl32.Scale3D(x, y, z))
}

// Scale post-multiplies a scale.
func (m *Matrix4) Scale(x, y, z float32) *Matrix4 {
	return m.SetMat4(m.m.Mul4(mgl32.Scale3D(x, y, z)))
}

// SetRotate replaces the receiver with a rotation of angle degrees about (x, y, z).
// The axis is normalized before use.
//
// Parameters:
//   - angle: rotation in degrees
//   - x, y, z: rotation axis
//
// Returns:
//   - *Matrix4: the receiver
func (m *Matrix4) SetRotate(angle, x, y, z float32) *Matrix4 {
	return m.SetMat4(rotation(angle, x, y, z))
}

// Rotate post-multiplies a rotation of angle degrees about (x, y, z).
func (m *Matrix4) Rotate(angle, x, y, z float32) *Matrix4 {
	return m.SetMat4(m.m.Mul4(rotation(angle, x, y, z)))
}

// SetFromQuaternion replaces the receiver with the rotation described by q.
// q is normalized for the conversion but left unchanged.
func (m *Matrix4) SetFromQuaternion(q *Quaternion) *Matrix4 {
	return m.SetMat4(q.q.Normalize().Mat4())
}

// SetOrtho replaces the receiver with an orthographic projection.
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the clip plane distances
//
// Returns:
//   - error: ErrNullFrustum if any extent pair is equal
func (m *Matrix4) SetOrtho(left, right, bottom, top, near, far float32) error {
	if left == right || bottom == top || near == far {
		return ErrNullFrustum
	}
	m.SetMat4(mgl32.Ortho(left, right, bottom, top, near, far))
	return nil
}

// SetFrustum replaces the receiver with a perspective frustum.
//
// Parameters:
//   - left, right, bottom, top: the near plane extents
//   - near, far: the clip plane distances, both positive
//
// Returns:
//   - error: error if the frustum is empty or a clip distance is not positive
func (m *Matrix4) SetFrustum(left, right, bottom, top, near, far float32) error {
	if left == right || bottom == top || near == far {
		return ErrNullFrustum
	}
	if near <= 0 || far <= 0 {
		return fmt.Errorf("%w: near %v, far %v must be positive", ErrNullFrustum, near, far)
	}
	m.SetMat4(mgl32.Frustum(left, right, bottom, top, near, far))
	return nil
}

// SetPerspective replaces the receiver with a symmetric perspective projection.
//
// Parameters:
//   - fovy: vertical field of view in degrees
//   - aspect: viewport width / height
//   - near, far: the clip plane distances, both positive
//
// Returns:
//   - error: error if the parameters describe an empty volume
func (m *Matrix4) SetPerspective(fovy, aspect, near, far float32) error {
	if near == far || aspect == 0 {
		return ErrNullFrustum
	}
	if near <= 0 || far <= 0 {
		return fmt.Errorf("%w: near %v, far %v must be positive", ErrNullFrustum, near, far)
	}
	if math.Sin(float64(mgl32.DegToRad(fovy))/2) == 0 {
		return ErrNullFrustum
	}
	m.SetMat4(mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far))
	return nil
}

// SetInfinitePerspective replaces the receiver with a perspective projection whose far plane
// sits at infinity.
//
// Parameters:
//   - fovy: vertical field of view in degrees
//   - aspect: viewport width / height
//   - near: the near clip distance, positive
//
// Returns:
//   - error: error if the parameters describe an empty volume
func (m *Matrix4) SetInfinitePerspective(fovy, aspect, near float32) error {
	if aspect == 0 || near <= 0 {
		return ErrNullFrustum
	}
	s := math.Sin(float64(mgl32.DegToRad(fovy)) / 2)
	if s == 0 {
		return ErrNullFrustum
	}
	f := float32(math.Cos(float64(mgl32.DegToRad(fovy))/2) / s)
	m.SetMat4(mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * near, 0,
	})
	return nil
}

// SetLookAt replaces the receiver with a view matrix looking from eye toward center.
func (m *Matrix4) SetLookAt(eyeX, eyeY, eyeZ, centerX, centerY, centerZ, upX, upY, upZ float32) *Matrix4 {
	return m.SetMat4(mgl32.LookAtV(
		mgl32.Vec3{eyeX, eyeY, eyeZ},
		mgl32.Vec3{centerX, centerY, centerZ},
		mgl32.Vec3{upX, upY, upZ},
	))
}

// Inverse inverts the receiver in place. A singular matrix is left untouched and not marked dirty.
//
// Returns:
//   - bool: false if the matrix was singular
func (m *Matrix4) Inverse() bool {
	return m.InverseInto(m)
}

// InverseInto writes the inverse of the receiver into dst. When the determinant is exactly
// zero dst is left untouched.
//
// Parameters:
//   - dst: destination matrix, may be the receiver
//
// Returns:
//   - bool: false if the matrix was singular
func (m *Matrix4) InverseInto(dst *Matrix4) bool {
	if m.m.Det() == 0 {
		return false
	}
	dst.SetMat4(m.m.Inv())
	return true
}

// Transpose transposes the receiver in place.
func (m *Matrix4) Transpose() *Matrix4 {
	return m.SetMat4(m.m.Transpose())
}

func rotation(angle, x, y, z float32) mgl32.Mat4 {
	axis := mgl32.Vec3{x, y, z}
	if l := axis.Len(); l != 1 && l != 0 {
		axis = axis.Mul(1 / l)
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(angle), axis)
}
