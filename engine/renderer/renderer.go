// Package renderer draws the active scene of a gltf.Document through a device.Device using the
// built-in lighting model.
package renderer

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gltf/engine/algebra"
	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
)

// FrameStats counts the work of the last Draw.
type FrameStats struct {
	Nodes     int
	DrawCalls int
	Skinned   int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	dev    device.Device
	logger *slog.Logger

	width, height int
	fallback      *gltf.Camera

	normal *algebra.Matrix4
	stats  FrameStats
}

// Renderer walks the active scene depth first and issues one draw per primitive.
// Draw must be called on the goroutine that owns the device.
type Renderer interface {
	// Device returns the device draws are issued to.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Resize records the viewport size. Cameras drawn afterwards use its aspect ratio.
	//
	// Parameters:
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	Resize(width, height int)

	// Draw renders the active scene of doc. The document must be loaded and set up on the device.
	// The camera is rc.Camera, else the document camera, else a default perspective camera.
	//
	// Parameters:
	//   - doc: the document
	//   - rc: lighting, fog and camera inputs
	//
	// Returns:
	//   - error: error if a node's skin or a primitive is not ready
	Draw(doc gltf.Document, rc *RenderContext) error

	// Stats returns the counts of the last Draw.
	//
	// Returns:
	//   - FrameStats: the counts
	Stats() FrameStats
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing through dev.
//
// Parameters:
//   - dev: the device
//   - options: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(dev device.Device, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		dev:      dev,
		logger:   slog.Default(),
		width:    1,
		height:   1,
		fallback: gltf.DefaultCamera(),
		normal:   algebra.NewMatrix4(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *renderer) Device() device.Device {
	return r.dev
}

func (r *renderer) Resize(width, height int) {
	r.width = max(width, 1)
	r.height = max(height, 1)
}

func (r *renderer) Stats() FrameStats {
	return r.stats
}

// frame is the uniform state shared by every draw of one Draw call.
type frame struct {
	projection []float32
	view       []float32
	cameraPos  []float32
	lightPos   []float32
	rc         *RenderContext
}

func (r *renderer) camera(doc gltf.Document, rc *RenderContext) *gltf.Camera {
	if rc.Camera != nil {
		return rc.Camera
	}
	if c := doc.Camera(); c != nil {
		return c
	}
	return r.fallback
}

func (r *renderer) Draw(doc gltf.Document, rc *RenderContext) error {
	r.stats = FrameStats{}
	scene := doc.Scene()
	if scene == nil {
		return nil
	}

	cam := r.camera(doc, rc)
	cam.SetAspect(float32(r.width) / float32(r.height))
	f := frame{
		projection: cam.Projection().Slice(),
		view:       cam.View().Slice(),
		cameraPos:  cam.Position().Slice(),
		lightPos:   []float32{0, 0, 0},
		rc:         rc,
	}
	if rc.Light != nil {
		f.lightPos = rc.Light.Global().Translation().Slice()
	}

	var err error
	scene.Walk(func(n *gltf.Node) bool {
		if err != nil {
			return false
		}
		r.stats.Nodes++
		if n.Mesh() != nil {
			err = r.drawNode(n, &f)
		}
		return err == nil
	})
	if err != nil {
		r.logger.Warn("frame aborted", slog.Int("draw_calls", r.stats.DrawCalls), slog.Any("err", err))
	}
	return err
}

// drawNode draws every primitive of n's mesh with n's global transform.
func (r *renderer) drawNode(n *gltf.Node, f *frame) error {
	model := n.Global()
	if !model.InverseInto(r.normal) {
		r.normal.Identity()
	}
	r.normal.Transpose()

	var joints []float32
	if skin := n.Skin(); skin != nil {
		m, err := skin.JointMatrices()
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name(), err)
		}
		joints = m[:min(len(m), 16*shader.MaxJoints)]
		r.stats.Skinned++
	}

	for _, p := range n.Mesh().Primitives() {
		mat := p.Material()
		prog, err := mat.Program(r.dev)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name(), err)
		}
		u, err := mat.Uniforms(r.dev)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name(), err)
		}

		r.dev.UseProgram(prog)
		r.dev.UniformMatrix4fv(u.Projection, f.projection)
		r.dev.UniformMatrix4fv(u.View, f.view)
		r.dev.UniformMatrix4fv(u.Model, model.Slice())
		r.dev.UniformMatrix4fv(u.NormalMatrix, r.normal.Slice())
		r.dev.Uniform3fv(u.CameraPos, f.cameraPos)
		r.dev.Uniform3fv(u.LightPos, f.lightPos)
		r.dev.Uniform3fv(u.Ambient, f.rc.Ambient[:])
		r.dev.Uniform3fv(u.Diffuse, f.rc.Diffuse[:])
		r.dev.Uniform3fv(u.Specular, f.rc.Specular[:])
		r.dev.Uniform1f(u.Shininess, f.rc.Shininess)
		r.dev.Uniform4fv(u.FogColor, f.rc.FogColor[:])
		r.dev.Uniform1f(u.FogStart, f.rc.FogStart)
		r.dev.Uniform1f(u.FogFalloff, f.rc.FogFalloff)
		base := mat.BaseColorFactor()
		r.dev.Uniform4fv(u.BaseColor, base[:])

		if joints != nil {
			r.dev.UniformMatrix4fv(u.Joints, joints)
			r.dev.Uniform1i(u.UseSkin, 1)
		} else {
			r.dev.Uniform1i(u.UseSkin, 0)
		}

		if tex := mat.Texture(); tex != nil {
			tex.Bind(r.dev)
			r.dev.Uniform1i(u.ColorTexture, int32(tex.Unit()))
		}

		if err := p.Draw(r.dev); err != nil {
			return err
		}
		r.stats.DrawCalls++
	}
	return nil
}
