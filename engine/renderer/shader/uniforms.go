package shader

import "github.com/Carmen-Shannon/oxy-gltf/engine/device"

// MaxJoints is the length of the joint matrix array in the default vertex shader.
const MaxJoints = 128

// Vertex attribute names. glTF attribute semantics map onto these by lowercasing.
const (
	AttrPosition = "position"
	AttrNormal   = "normal"
	AttrTexcoord = "texcoord_0"
	AttrJoints   = "joints_0"
	AttrWeights  = "weights_0"
)

// Uniform names declared by the default shaders.
const (
	UniformProjection   = "projection"
	UniformModel        = "model"
	UniformView         = "view"
	UniformNormalMatrix = "normMat"
	UniformJoints       = "invBindMat"
	UniformUseSkin      = "useSkin"
	UniformColorTexture = "colorTex"
	UniformBaseColor    = "baseColor"
	UniformCameraPos    = "cameraPos"
	UniformFogColor     = "fogCol"
	UniformFogStart     = "fogStart"
	UniformFogFalloff   = "fogExp"
	UniformLightPos     = "lightPos"
	UniformAmbient      = "ambientColor"
	UniformDiffuse      = "diffuseColor"
	UniformSpecular     = "specColor"
	UniformShininess    = "shininess"
)

// Uniforms caches the uniform slots of a linked program. Slots the program does not declare are device.NoUniform.
type Uniforms struct {
	Projection   device.UniformLocation
	Model        device.UniformLocation
	View         device.UniformLocation
	NormalMatrix device.UniformLocation
	Joints       device.UniformLocation
	UseSkin      device.UniformLocation
	ColorTexture device.UniformLocation
	BaseColor    device.UniformLocation
	CameraPos    device.UniformLocation
	FogColor     device.UniformLocation
	FogStart     device.UniformLocation
	FogFalloff   device.UniformLocation
	LightPos     device.UniformLocation
	Ambient      device.UniformLocation
	Diffuse      device.UniformLocation
	Specular     device.UniformLocation
	Shininess    device.UniformLocation
}

// ResolveUniforms looks up every uniform slot of prog.
// The sampler slot is only resolved when withTexture is set, so untextured materials never bind a unit.
//
// Parameters:
//   - dev: the device owning prog
//   - prog: a linked program
//   - withTexture: whether to resolve the colour texture sampler
//
// Returns:
//   - Uniforms: the resolved slots
func ResolveUniforms(dev device.Device, prog device.Program, withTexture bool) Uniforms {
	loc := func(name string) device.UniformLocation {
		return dev.UniformLocation(prog, name)
	}
	u := Uniforms{
		Projection:   loc(UniformProjection),
		Model:        loc(UniformModel),
		View:         loc(UniformView),
		NormalMatrix: loc(UniformNormalMatrix),
		Joints:       loc(UniformJoints),
		UseSkin:      loc(UniformUseSkin),
		ColorTexture: device.NoUniform,
		BaseColor:    loc(UniformBaseColor),
		CameraPos:    loc(UniformCameraPos),
		FogColor:     loc(UniformFogColor),
		FogStart:     loc(UniformFogStart),
		FogFalloff:   loc(UniformFogFalloff),
		LightPos:     loc(UniformLightPos),
		Ambient:      loc(UniformAmbient),
		Diffuse:      loc(UniformDiffuse),
		Specular:     loc(UniformSpecular),
		Shininess:    loc(UniformShininess),
	}
	if withTexture {
		u.ColorTexture = loc(UniformColorTexture)
	}
	return u
}
