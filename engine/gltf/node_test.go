package gltf

import (
	"context"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/algebra"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hierarchyJSON = `{
	"asset": {"version": "2.0"},
	"scenes": [{"nodes": [0]}],
	"nodes": [
		{"name": "root", "children": [1, 2], "translation": [1, 0, 0]},
		{"name": "a", "children": [3], "scale": [2, 2, 2]},
		{"name": "b", "translation": [0, 1, 0]},
		{"name": "c", "translation": [0, 0, 1]}
	]
}`

func parseHierarchy(t *testing.T) (root, a, b, c *Node) {
	t.Helper()
	doc, err := Parse(hierarchyJSON)
	require.NoError(t, err)
	n := doc.Nodes()
	return n[0], n[1], n[2], n[3]
}

func assertMatrixNear(t *testing.T, want mgl32.Mat4, got *algebra.Matrix4) {
	t.Helper()
	g := got.Mat4()
	assert.True(t, want.ApproxEqualThreshold(g, 1e-5), "want %v, got %v", want, g)
}

func TestGlobalComposesParents(t *testing.T) {
	_, _, b, c := parseHierarchy(t)
	want := mgl32.Translate3D(1, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)).Mul4(mgl32.Translate3D(0, 0, 1))
	assertMatrixNear(t, want, c.Global())
	assertMatrixNear(t, mgl32.Translate3D(1, 1, 0), b.Global())
	assert.Equal(t, "c", c.Parent().Parent().Parent().FindChildByName("c").Name())
}

func TestGlobalCacheHit(t *testing.T) {
	_, _, _, c := parseHierarchy(t)
	first := c.Global()
	gen := first.Generation()
	assert.Equal(t, 1, c.recomputes)

	second := c.Global()
	assert.Same(t, first, second)
	assert.Equal(t, gen, second.Generation())
	assert.Equal(t, 1, c.recomputes)
	assert.False(t, c.GlobalDirty())
}

func TestMutationDirtiesDescendantsOnly(t *testing.T) {
	root, a, b, c := parseHierarchy(t)
	c.Global()
	b.Global()
	for _, n := range []*Node{root, a, b, c} {
		assert.False(t, n.GlobalDirty(), n.Name())
	}

	a.Translation().SetX(5)
	assert.True(t, a.Dirty())
	assert.True(t, a.GlobalDirty())
	assert.True(t, c.GlobalDirty())
	assert.False(t, b.GlobalDirty())
	assert.False(t, root.GlobalDirty())

	c.Global()
	assert.Equal(t, 2, c.recomputes)
	assert.Equal(t, 1, b.recomputes)
	assert.False(t, a.Dirty())

	root.Rotate(float32(math.Pi/2), algebra.NewVector3(0, 1, 0), false)
	for _, n := range []*Node{root, a, b, c} {
		assert.True(t, n.GlobalDirty(), n.Name())
	}
	b.Global()
	assert.Equal(t, 2, b.recomputes)
}

func TestMatrixNode(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	doc, err := Parse(map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{map[string]any{"matrix": m[:]}},
	})
	require.NoError(t, err)
	n := doc.Nodes()[0]

	assertMatrixNear(t, m, n.Local())
	assert.InDeltaSlice(t, []float32{1, 2, 3}, n.Translation().Slice(), 1e-6)
	assert.InDeltaSlice(t, []float32{2, 2, 2}, n.Scale().Slice(), 1e-6)

	// TRS edits take over from the authored matrix.
	n.Translation().SetX(4)
	assertMatrixNear(t, mgl32.Translate3D(4, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2)), n.Local())

	n.SetMatrix(algebra.NewMatrix4().SetTranslate(7, 0, 0))
	assertMatrixNear(t, mgl32.Translate3D(7, 0, 0), n.Local())
}

const skinJSON = `{
	"asset": {"version": "2.0"},
	"scenes": [{"nodes": [0, 1]}],
	"nodes": [
		{"name": "body", "skin": 0, "translation": [0, 1, 0]},
		{"name": "hip", "children": [2]},
		{"name": "knee", "translation": [0, -1, 0]}
	],
	"skins": [{"joints": [1, 2]}, {"joints": [2]}]
}`

func TestSkinJointMatrices(t *testing.T) {
	doc, err := Parse(skinJSON)
	require.NoError(t, err)
	skin := doc.Skins()[0]
	body, hip, knee := doc.Nodes()[0], doc.Nodes()[1], doc.Nodes()[2]
	assert.Same(t, body, skin.Owner())

	_, err = skin.JointMatrices()
	assert.ErrorIs(t, err, ErrNotLoaded)
	require.NoError(t, doc.Load(context.Background()))

	m, err := skin.JointMatrices()
	require.NoError(t, err)
	require.Len(t, m, 32)
	assert.Equal(t, 2, skin.recomputes)
	assert.InDelta(t, -1, m[13], 1e-6)
	assert.InDelta(t, -2, m[16+13], 1e-6)

	_, err = skin.JointMatrices()
	require.NoError(t, err)
	assert.Equal(t, 2, skin.recomputes)

	knee.Translation().SetX(1)
	m, _ = skin.JointMatrices()
	assert.Equal(t, 3, skin.recomputes)
	assert.InDelta(t, 1, m[16+12], 1e-6)

	hip.Translation().SetZ(1)
	m, _ = skin.JointMatrices()
	assert.Equal(t, 5, skin.recomputes)
	assert.InDelta(t, 1, m[14], 1e-6)
	assert.InDelta(t, 1, m[16+14], 1e-6)

	body.Translation().SetY(2)
	m, _ = skin.JointMatrices()
	assert.Equal(t, 7, skin.recomputes)
	assert.InDelta(t, -3, m[16+13], 1e-6)
}

func TestSkinSingularOwnerKeepsPreviousInverse(t *testing.T) {
	doc, err := Parse(skinJSON)
	require.NoError(t, err)
	require.NoError(t, doc.Load(context.Background()))
	skin := doc.Skins()[0]
	body := doc.Nodes()[0]

	m, err := skin.JointMatrices()
	require.NoError(t, err)
	before := append([]float32(nil), m...)

	body.Scale().Set(0, 0, 0)
	m, err = skin.JointMatrices()
	require.NoError(t, err)
	assert.Equal(t, before, m)
	assert.Equal(t, 2, skin.recomputes)
	for _, f := range m {
		assert.False(t, math.IsNaN(float64(f)) || math.IsInf(float64(f), 0))
	}

	body.Scale().Set(1, 1, 1)
	body.Translation().SetY(2)
	m, _ = skin.JointMatrices()
	assert.Equal(t, 4, skin.recomputes)
	assert.InDelta(t, -3, m[16+13], 1e-6)
}

func TestSkinWithoutOwner(t *testing.T) {
	doc, err := Parse(skinJSON)
	require.NoError(t, err)
	skin := doc.Skins()[1]
	assert.Nil(t, skin.Owner())

	require.NoError(t, skin.Load(context.Background()))
	m, err := skin.JointMatrices()
	require.NoError(t, err)
	e := algebra.NewMatrix4().Elements()
	assert.Equal(t, e[:], m)
}

const cameraJSON = `{
	"asset": {"version": "2.0"},
	"scenes": [{"nodes": [0, 2]}],
	"nodes": [
		{"name": "Rig", "children": [1], "translation": [0, 0, 5]},
		{"name": "Camera_Orientation", "camera": 0, "rotation": [0, 0.70710677, 0, 0.70710677]},
		{"name": "Spot", "camera": 1}
	],
	"cameras": [
		{"type": "perspective", "perspective": {"yfov": 1.0, "znear": 0.1, "zfar": 50}},
		{"type": "orthographic", "orthographic": {"xmag": 2, "ymag": 1, "znear": 0.5, "zfar": 10}}
	]
}`

func TestCameraCorrectionNode(t *testing.T) {
	doc, err := Parse(cameraJSON)
	require.NoError(t, err)
	rig, corr := doc.Nodes()[0], doc.Nodes()[1]
	cam := doc.Camera()
	require.NotNil(t, cam)
	assert.Same(t, doc.Cameras()[0], cam)
	assert.Same(t, corr, cam.CorrectionNode())
	assert.Same(t, rig, cam.Parent())

	assertMatrixNear(t, mgl32.Ident4(), algebra.NewMatrix4().SetMat4(cam.View().Mat4().Mul4(corr.Global().Mat4())))
	assert.InDeltaSlice(t, []float32{1, 0, 0}, cam.Forward().Slice(), 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, cam.Up().Slice(), 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0, -1}, cam.Right().Slice(), 1e-6)
	assert.InDeltaSlice(t, []float32{0, 0, 5}, cam.Position().Slice(), 1e-6)

	view := cam.View()
	gen := view.Generation()
	cam.View()
	assert.Equal(t, gen, view.Generation())

	rig.Translation().SetX(3)
	assert.NotEqual(t, gen, cam.View().Generation())
	assert.InDelta(t, 5, cam.View().At(12), 1e-5)
	assert.InDelta(t, -3, cam.View().At(14), 1e-5)
	assert.InDeltaSlice(t, []float32{3, 0, 5}, cam.Position().Slice(), 1e-6)
}

func TestCameraProjection(t *testing.T) {
	doc, err := Parse(cameraJSON)
	require.NoError(t, err)
	persp, ortho := doc.Cameras()[0], doc.Cameras()[1]

	persp.SetAspect(2)
	assertMatrixNear(t, mgl32.Perspective(1.0, 2, 0.1, 50), persp.Projection())
	assertMatrixNear(t, mgl32.Ortho(-2, 2, -1, 1, 0.5, 10), ortho.Projection())

	// A camera carried directly keeps its own node as parent.
	spot := doc.Nodes()[2]
	assert.Same(t, spot, ortho.Parent())
	assert.InDeltaSlice(t, []float32{0, 0, 1}, ortho.Forward().Slice(), 1e-6)

	inf := NewPerspectiveCamera("inf", 1.0, 0.1, nil)
	assert.Equal(t, float32(-1), inf.Projection().At(10))
	assert.Equal(t, float32(-0.2), inf.Projection().At(14))

	def := DefaultCamera()
	assertMatrixNear(t, mgl32.Perspective(math.Pi/3, 1, 0.01, 100), def.Projection())
	assert.Nil(t, def.Orientation())
	assert.InDeltaSlice(t, []float32{0, 0, 1}, def.Forward().Slice(), 1e-6)
	assert.Equal(t, [16]float32(mgl32.Ident4()), def.View().Elements())
}
