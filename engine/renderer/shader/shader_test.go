package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultProgram(t *testing.T) {
	dev := device.NewHeadless()
	prog, err := Build(dev, DefaultVertex(), DefaultFragment())
	require.NoError(t, err)
	assert.NotZero(t, prog)
	assert.Equal(t, 1, dev.LivePrograms())

	for _, name := range []string{AttrPosition, AttrNormal, AttrTexcoord, AttrJoints, AttrWeights} {
		assert.GreaterOrEqual(t, dev.AttribLocation(prog, name), int32(0), name)
	}
}

func TestResolveUniforms(t *testing.T) {
	dev := device.NewHeadless()
	prog, err := Build(dev, DefaultVertex(), DefaultFragment())
	require.NoError(t, err)

	u := ResolveUniforms(dev, prog, false)
	assert.Equal(t, device.NoUniform, u.ColorTexture)
	for name, loc := range map[string]device.UniformLocation{
		UniformProjection: u.Projection,
		UniformJoints:     u.Joints,
		UniformUseSkin:    u.UseSkin,
		UniformFogStart:   u.FogStart,
		UniformShininess:  u.Shininess,
		UniformCameraPos:  u.CameraPos,
		UniformBaseColor:  u.BaseColor,
	} {
		assert.NotEqual(t, device.NoUniform, loc, name)
	}

	textured := ResolveUniforms(dev, prog, true)
	assert.NotEqual(t, device.NoUniform, textured.ColorTexture)
}

func TestBuildCompileError(t *testing.T) {
	dev := device.NewHeadless()
	broken := NewShader("broken.frag", ShaderTypeFragment, "precision mediump float;\n#error nope\n")

	_, err := Build(dev, DefaultVertex(), broken)
	require.ErrorIs(t, err, ErrCompile)
	assert.Contains(t, err.Error(), "broken.frag")
	assert.Equal(t, 0, dev.LivePrograms())
}

func TestBuildLinkError(t *testing.T) {
	dev := device.NewHeadless()
	// Two vertex stages and no fragment stage cannot link.
	_, err := Build(dev, DefaultVertex(), NewShader("vert-as-frag", ShaderTypeVertex, DefaultVertexSource))
	require.ErrorIs(t, err, ErrLink)
	assert.Equal(t, 0, dev.LivePrograms())
}

func TestNewShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.frag")
	require.NoError(t, os.WriteFile(path, []byte("void main(){}\n"), 0o644))

	s, err := NewShaderFromFile("flat", ShaderTypeFragment, path)
	require.NoError(t, err)
	assert.Equal(t, "flat", s.Key())
	assert.Equal(t, device.FragmentShader, s.Stage())
	assert.Equal(t, "void main(){}\n", s.Source())

	_, err = NewShaderFromFile("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
