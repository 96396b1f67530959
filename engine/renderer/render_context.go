package renderer

import (
	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
)

// RenderContext holds the per-frame inputs that are not part of a document: the camera override,
// the light, fog and the fixed lighting model colours. It is read on the rendering goroutine
// and may be changed between frames.
type RenderContext struct {
	// Camera overrides the document camera when set.
	Camera *gltf.Camera

	// Light positions the point light. Its global translation is used.
	Light *gltf.Node

	// FogColor is the colour distant fragments blend towards.
	FogColor [4]float32
	// FogStart is the distance fog starts at.
	FogStart float32
	// FogFalloff is the fog exponent.
	FogFalloff float32

	Ambient   [3]float32
	Diffuse   [3]float32
	Specular  [3]float32
	Shininess float32
}

// NewRenderContext creates a context with grey fog starting at 100 units, a white light at the
// origin with no ambient term, and a shininess of 50.
//
// Returns:
//   - *RenderContext: the context
func NewRenderContext() *RenderContext {
	return &RenderContext{
		Light:      gltf.NewNode("light"),
		FogColor:   [4]float32{0.5, 0.5, 0.5, 1},
		FogStart:   100,
		FogFalloff: 1,
		Ambient:    [3]float32{0, 0, 0},
		Diffuse:    [3]float32{1, 1, 1},
		Specular:   [3]float32{1, 1, 1},
		Shininess:  50,
	}
}
