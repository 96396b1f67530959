package algebra

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatrixNear(t *testing.T, want, got [16]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	v3, err := NewVector3From([]float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, [3]float32{1, 2, 3}, v3.Elements())

	v4, err := NewVector4From([]float32{4, 5, 6, 7})
	require.NoError(t, err)
	assert.Equal(t, [4]float32{4, 5, 6, 7}, v4.Elements())

	vals := make([]float32, 16)
	for i := range vals {
		vals[i] = float32(i) * 1.5
	}
	m, err := NewMatrix4From(vals)
	require.NoError(t, err)
	assert.Equal(t, vals, m.Slice())

	_, err = NewVector3From([]float32{1, 2})
	assert.Error(t, err)
	_, err = NewMatrix4From(vals[:15])
	assert.Error(t, err)
}

func TestMutationTracksDirtyAndGeneration(t *testing.T) {
	v := NewVector3(0, 0, 0)
	assert.True(t, v.Dirty())
	v.ClearDirty()
	assert.False(t, v.Dirty())

	gen := v.Generation()
	v.SetX(4)
	assert.True(t, v.Dirty())
	assert.Greater(t, v.Generation(), gen)

	gen = v.Generation()
	v.ClearDirty()
	assert.Equal(t, gen, v.Generation())
}

func TestVectorAddSub(t *testing.T) {
	a := NewVector3(1, 2, 3)
	a.Add(NewVector3(1, 1, 1))
	assert.Equal(t, [3]float32{2, 3, 4}, a.Elements())

	a.SubScalars(2, 3)
	assert.Equal(t, [3]float32{0, 0, 4}, a.Elements())

	b := NewVector3(1, 2, 3)
	dst := NewVector3(0, 0, 0)
	require.NoError(t, b.AddInto(NewVector3(10, 20, 30), dst, 1))
	assert.Equal(t, [3]float32{0, 22, 33}, dst.Elements())
	assert.Equal(t, [3]float32{1, 2, 3}, b.Elements())

	require.NoError(t, b.SubInto(NewVector3(1, 1, 1), nil, 2))
	assert.Equal(t, [3]float32{1, 2, 2}, b.Elements())

	// A shorter operand bounds the write.
	wide := NewVector4(0, 0, 0, 0)
	require.NoError(t, NewVector4(1, 1, 1, 1).AddInto(NewVector3(5, 5, 5), wide, 0))
	assert.Equal(t, [4]float32{6, 6, 6, 0}, wide.Elements())

	err := b.AddInto(b, dst, 4)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)

	assert.NoError(t, b.AddInto(b, dst, 3))
	assert.Equal(t, [3]float32{0, 22, 33}, dst.Elements())
}

func TestMatrixAddIntoWithOffset(t *testing.T) {
	m := NewMatrix4()
	dst := NewMatrix4()
	require.NoError(t, m.AddInto(NewMatrix4(), dst, 5))
	got := dst.Mat4()
	assert.Equal(t, float32(1), got[0])
	assert.Equal(t, float32(2), got[5])
	assert.Equal(t, float32(2), got[15])
}

func TestVectorNormalize(t *testing.T) {
	v := NewVector3(3, 0, 4)
	assert.InDelta(t, 5, v.Magnitude(), 1e-6)
	v.Normalize()
	assert.InDelta(t, 1, v.Magnitude(), 1e-6)

	zero := NewVector3(0, 0, 0).Normalize()
	assert.True(t, math.IsNaN(float64(zero.X())))
}

func TestVectorCross(t *testing.T) {
	c := NewVector3(1, 0, 0).Cross(NewVector3(0, 1, 0))
	assert.Equal(t, [3]float32{0, 0, 1}, c.Elements())
}

func TestQuaternionZeroRotationIsIdentity(t *testing.T) {
	for _, axis := range []*Vector3{NewVector3(1, 0, 0), NewVector3(0, 3, 4), NewVector3(0, 0, 0)} {
		q := QuaternionFromAxisAngle(0, axis)
		assert.Equal(t, [4]float32{0, 0, 0, 1}, q.Elements())
	}

	q := NewQuaternion(0.1, 0.2, 0.3, 0.9)
	before := q.Elements()
	q.Rotate(0, NewVector3(0, 1, 0), false)
	assert.Equal(t, before, q.Elements())
	q.Rotate(0, NewVector3(0, 1, 0), true)
	assert.Equal(t, before, q.Elements())
}

func TestQuaternionRotateOrdering(t *testing.T) {
	yaw := QuaternionFromAxisAngle(math.Pi/2, NewVector3(0, 1, 0))
	pitch := QuaternionFromAxisAngle(math.Pi/2, NewVector3(1, 0, 0))

	local := yaw.Clone().Rotate(math.Pi/2, NewVector3(1, 0, 0), false)
	global := yaw.Clone().Rotate(math.Pi/2, NewVector3(1, 0, 0), true)

	wantLocal := yaw.Quat().Mul(pitch.Quat())
	wantGlobal := pitch.Quat().Mul(yaw.Quat())

	assert.True(t, local.Quat().ApproxEqual(wantLocal))
	assert.True(t, global.Quat().ApproxEqual(wantGlobal))
	assert.False(t, local.Quat().ApproxEqual(global.Quat()))
}

func TestMatrixInverse(t *testing.T) {
	m := NewMatrix4().Translate(1, -2, 3).Rotate(30, 0, 1, 1).Scale(2, 3, 4)
	inv := m.Clone()
	require.True(t, inv.Inverse())

	prod := MulMatrix4(m, inv, NewMatrix4())
	assertMatrixNear(t, mgl32.Ident4(), prod.Elements())
}

func TestMatrixInverseSingularIsNoop(t *testing.T) {
	singular := NewMatrix4().SetScale(1, 0, 1)
	dst := NewMatrix4().SetTranslate(5, 6, 7)
	dst.ClearDirty()
	gen := dst.Generation()

	assert.False(t, singular.InverseInto(dst))
	assert.Equal(t, mgl32.Translate3D(5, 6, 7), dst.Mat4())
	assert.False(t, dst.Dirty())
	assert.Equal(t, gen, dst.Generation())

	before := singular.Elements()
	assert.False(t, singular.Inverse())
	assert.Equal(t, before, singular.Elements())
}

func TestMatrixTranslationLayout(t *testing.T) {
	m := NewMatrix4().SetTranslate(1, 2, 3)
	e := m.Elements()
	assert.Equal(t, float32(1), e[12])
	assert.Equal(t, float32(2), e[13])
	assert.Equal(t, float32(3), e[14])

	p := m.MulVec3(NewVector3(1, 1, 1))
	assert.Equal(t, [3]float32{2, 3, 4}, p.Elements())
}

func TestMatrixFromQuaternion(t *testing.T) {
	q := QuaternionFromAxisAngle(math.Pi/2, NewVector3(0, 0, 1))
	m := NewMatrix4().SetFromQuaternion(q)
	v := m.MulVec3(NewVector3(1, 0, 0))
	assert.InDelta(t, 0, v.X(), 1e-6)
	assert.InDelta(t, 1, v.Y(), 1e-6)

	rot := NewMatrix4().SetRotate(90, 0, 0, 1)
	assertMatrixNear(t, rot.Elements(), m.Elements())
}

func TestMatrixTranspose(t *testing.T) {
	m := NewMatrix4().SetTranslate(1, 2, 3).Transpose()
	e := m.Elements()
	assert.Equal(t, float32(1), e[3])
	assert.Equal(t, float32(2), e[7])
	assert.Equal(t, float32(3), e[11])
}

func TestProjectionValidation(t *testing.T) {
	m := NewMatrix4()
	assert.ErrorIs(t, m.SetOrtho(1, 1, -1, 1, 0.1, 10), ErrNullFrustum)
	assert.ErrorIs(t, m.SetFrustum(-1, 1, -1, 1, 0, 10), ErrNullFrustum)
	assert.ErrorIs(t, m.SetPerspective(60, 0, 0.1, 10), ErrNullFrustum)
	assert.ErrorIs(t, m.SetPerspective(60, 1, -1, 10), ErrNullFrustum)
	assert.ErrorIs(t, m.SetPerspective(0, 1, 0.1, 10), ErrNullFrustum)
	assert.ErrorIs(t, m.SetInfinitePerspective(60, 1, 0), ErrNullFrustum)

	require.NoError(t, m.SetPerspective(90, 1, 1, 100))
	assertMatrixNear(t, mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100), m.Elements())

	require.NoError(t, m.SetOrtho(-2, 2, -1, 1, 0.1, 100))
	assertMatrixNear(t, mgl32.Ortho(-2, 2, -1, 1, 0.1, 100), m.Elements())

	require.NoError(t, m.SetInfinitePerspective(90, 2, 0.5))
	e := m.Elements()
	assert.InDelta(t, 0.5, e[0], 1e-6)
	assert.InDelta(t, 1, e[5], 1e-6)
	assert.Equal(t, float32(-1), e[10])
	assert.Equal(t, float32(-1), e[11])
	assert.Equal(t, float32(-1), e[14])
}

func TestLookAt(t *testing.T) {
	m := NewMatrix4().SetLookAt(0, 0, 5, 0, 0, 0, 0, 1, 0)
	p := m.MulVec3(NewVector3(0, 0, 0))
	assert.InDelta(t, -5, p.Z(), 1e-6)
}
