package algebra

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrOffsetOutOfRange is returned when a partial write starts past the end of its destination.
var ErrOffsetOutOfRange = errors.New("offset exceeds destination length")

// Vector3 is a change-tracked 3-component vector.
type Vector3 struct {
	tracker
	v mgl32.Vec3
}

// Vector4 is a change-tracked 4-component vector.
type Vector4 struct {
	tracker
	v mgl32.Vec4
}

var (
	_ Array = &Vector3{}
	_ Array = &Vector4{}
)

// NewVector3 creates a Vector3 from explicit components. The new value starts dirty.
//
// Parameters:
//   - x, y, z: the components
//
// Returns:
//   - *Vector3: the new vector
func NewVector3(x, y, z float32) *Vector3 {
	v := &Vector3{v: mgl32.Vec3{x, y, z}}
	v.touch()
	return v
}

// NewVector3From creates a Vector3 from a slice of exactly three values.
//
// Parameters:
//   - vals: the component list
//
// Returns:
//   - *Vector3: the new vector
//   - error: error if vals does not hold exactly three values
func NewVector3From(vals []float32) (*Vector3, error) {
	if len(vals) != 3 {
		return nil, fmt.Errorf("vector3 needs 3 components, got %d", len(vals))
	}
	return NewVector3(vals[0], vals[1], vals[2]), nil
}

func (v *Vector3) Len() int { return 3 }

func (v *Vector3) At(i int) float32 { return v.v[i] }

func (v *Vector3) SetAt(i int, val float32) {
	v.v[i] = val
	v.touch()
}

func (v *Vector3) X() float32 { return v.v[0] }
func (v *Vector3) Y() float32 { return v.v[1] }
func (v *Vector3) Z() float32 { return v.v[2] }

func (v *Vector3) SetX(x float32) { v.SetAt(0, x) }
func (v *Vector3) SetY(y float32) { v.SetAt(1, y) }
func (v *Vector3) SetZ(z float32) { v.SetAt(2, z) }

// Set assigns all three components.
func (v *Vector3) Set(x, y, z float32) *Vector3 {
	v.v = mgl32.Vec3{x, y, z}
	v.touch()
	return v
}

// SetVec3 assigns the components from an mgl32 vector.
func (v *Vector3) SetVec3(o mgl32.Vec3) *Vector3 {
	v.v = o
	v.touch()
	return v
}

// Vec3 returns the components as an mgl32 vector.
func (v *Vector3) Vec3() mgl32.Vec3 { return v.v }

// Elements returns a copy of the components.
func (v *Vector3) Elements() [3]float32 { return v.v }

// Slice returns the components as a freshly allocated slice.
func (v *Vector3) Slice() []float32 { return []float32{v.v[0], v.v[1], v.v[2]} }

// Clone returns an independent copy. The copy starts dirty.
func (v *Vector3) Clone() *Vector3 { return NewVector3(v.v[0], v.v[1], v.v[2]) }

// Add adds o to the receiver in place.
func (v *Vector3) Add(o *Vector3) *Vector3 {
	return v.SetVec3(v.v.Add(o.v))
}

// Sub subtracts o from the receiver in place.
func (v *Vector3) Sub(o *Vector3) *Vector3 {
	return v.SetVec3(v.v.Sub(o.v))
}

// AddScalars adds per-component literals to the receiver in place. vals[0] pairs with
// component 0. Components without a matching literal are left unchanged.
func (v *Vector3) AddScalars(vals ...float32) *Vector3 {
	addScalars(v, vals, 1)
	return v
}

// SubScalars subtracts per-component literals from the receiver in place.
func (v *Vector3) SubScalars(vals ...float32) *Vector3 {
	addScalars(v, vals, -1)
	return v
}

// AddInto writes v[i] + o[i] into dst[i] for every component from offset up to the shortest
// of v, o and dst. Components below offset are left untouched. A nil dst writes to the
// receiver.
//
// Parameters:
//   - o: the addend
//   - dst: destination aggregate, or nil for the receiver
//   - offset: first component to write
//
// Returns:
//   - error: ErrOffsetOutOfRange if offset exceeds the destination length
func (v *Vector3) AddInto(o, dst Array, offset int) error {
	return combine(v, o, dst, offset, 1)
}

// SubInto writes v[i] - o[i] into dst[i]. See AddInto for the offset rules.
func (v *Vector3) SubInto(o, dst Array, offset int) error {
	return combine(v, o, dst, offset, -1)
}

// Scale multiplies every component by s in place.
func (v *Vector3) Scale(s float32) *Vector3 {
	return v.SetVec3(v.v.Mul(s))
}

// Dot returns the dot product with o.
func (v *Vector3) Dot(o *Vector3) float32 { return v.v.Dot(o.v) }

// Cross returns a new vector holding v × o.
func (v *Vector3) Cross(o *Vector3) *Vector3 {
	c := v.v.Cross(o.v)
	return NewVector3(c[0], c[1], c[2])
}

// Magnitude returns the Euclidean norm.
func (v *Vector3) Magnitude() float32 { return v.v.Len() }

// Normalize divides the vector by its magnitude in place.
// A zero vector yields non-finite components.
func (v *Vector3) Normalize() *Vector3 {
	m := v.Magnitude()
	return v.Set(v.v[0]/m, v.v[1]/m, v.v[2]/m)
}

// NewVector4 creates a Vector4 from explicit components. The new value starts dirty.
//
// Parameters:
//   - x, y, z, w: the components
//
// Returns:
//   - *Vector4: the new vector
func NewVector4(x, y, z, w float32) *Vector4 {
	v := &Vector4{v: mgl32.Vec4{x, y, z, w}}
	v.touch()
	return v
}

// NewVector4From creates a Vector4 from a slice of exactly four values.
//
// Parameters:
//   - vals: the component list
//
// Returns:
//   - *Vector4: the new vector
//   - error: error if vals does not hold exactly four values
func NewVector4From(vals []float32) (*Vector4, error) {
	if len(vals) != 4 {
		return nil, fmt.Errorf("vector4 needs 4 components, got %d", len(vals))
	}
	return NewVector4(vals[0], vals[1], vals[2], vals[3]), nil
}

func (v *Vector4) Len() int { return 4 }

func (v *Vector4) At(i int) float32 { return v.v[i] }

func (v *Vector4) SetAt(i int, val float32) {
	v.v[i] = val
	v.touch()
}

func (v *Vector4) X() float32 { return v.v[0] }
func (v *Vector4) Y() float32 { return v.v[1] }
func (v *Vector4) Z() float32 { return v.v[2] }
func (v *Vector4) W() float32 { return v.v[3] }

// Set assigns all four components.
func (v *Vector4) Set(x, y, z, w float32) *Vector4 {
	v.v = mgl32.Vec4{x, y, z, w}
	v.touch()
	return v
}

// SetVec4 assigns the components from an mgl32 vector.
func (v *Vector4) SetVec4(o mgl32.Vec4) *Vector4 {
	v.v = o
	v.touch()
	return v
}

// Vec4 returns the components as an mgl32 vector.
func (v *Vector4) Vec4() mgl32.Vec4 { return v.v }

// Elements returns a copy of the components.
func (v *Vector4) Elements() [4]float32 { return v.v }

// Slice returns the components as a freshly allocated slice.
func (v *Vector4) Slice() []float32 { return []float32{v.v[0], v.v[1], v.v[2], v.v[3]} }

// Add adds o to the receiver in place.
func (v *Vector4) Add(o *Vector4) *Vector4 {
	return v.SetVec4(v.v.Add(o.v))
}

// Sub subtracts o from the receiver in place.
func (v *Vector4) Sub(o *Vector4) *Vector4 {
	return v.SetVec4(v.v.Sub(o.v))
}

// AddScalars adds per-component literals to the receiver in place.
func (v *Vector4) AddScalars(vals ...float32) *Vector4 {
	addScalars(v, vals, 1)
	return v
}

// SubScalars subtracts per-component literals from the receiver in place.
func (v *Vector4) SubScalars(vals ...float32) *Vector4 {
	addScalars(v, vals, -1)
	return v
}

// AddInto writes v[i] + o[i] into dst[i] from component offset on. A nil dst writes to the
// receiver.
func (v *Vector4) AddInto(o, dst Array, offset int) error {
	return combine(v, o, dst, offset, 1)
}

// SubInto writes v[i] - o[i] into dst[i] from component offset on.
func (v *Vector4) SubInto(o, dst Array, offset int) error {
	return combine(v, o, dst, offset, -1)
}

// Scale multiplies every component by s in place.
func (v *Vector4) Scale(s float32) *Vector4 {
	return v.SetVec4(v.v.Mul(s))
}

// Dot returns the dot product with o.
func (v *Vector4) Dot(o *Vector4) float32 { return v.v.Dot(o.v) }

// Magnitude returns the Euclidean norm.
func (v *Vector4) Magnitude() float32 { return v.v.Len() }

// Normalize divides the vector by its magnitude in place.
// A zero vector yields non-finite components.
func (v *Vector4) Normalize() *Vector4 {
	m := v.Magnitude()
	return v.Set(v.v[0]/m, v.v[1]/m, v.v[2]/m, v.v[3]/m)
}

// combine writes src[i] + sign*o[i] into dst[i] for every i in [offset, n), where n is the
// shortest of src, o and dst. The destination is marked dirty even when nothing is written.
func combine(src, o, dst Array, offset int, sign float32) error {
	if dst == nil {
		dst = src
	}
	if offset < 0 || offset > dst.Len() {
		return fmt.Errorf("%w: offset %d, length %d", ErrOffsetOutOfRange, offset, dst.Len())
	}
	end := min(dst.Len(), src.Len(), o.Len())
	for i := offset; i < end; i++ {
		dst.SetAt(i, src.At(i)+sign*o.At(i))
	}
	dst.MarkDirty()
	return nil
}

func addScalars(a Array, vals []float32, sign float32) {
	end := min(a.Len(), len(vals))
	for i := 0; i < end; i++ {
		a.SetAt(i, a.At(i)+sign*vals[i])
	}
	a.MarkDirty()
}
