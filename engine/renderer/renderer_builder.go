package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger the renderer reports through.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithViewport sets the initial viewport size, as Resize would.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the viewport option to a renderer
func WithViewport(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.Resize(width, height)
	}
}

// WithFallbackCamera replaces the camera used for documents that carry none.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - RendererBuilderOption: a function that applies the camera option to a renderer
func WithFallbackCamera(c *gltf.Camera) RendererBuilderOption {
	return func(r *renderer) {
		if c != nil {
			r.fallback = c
		}
	}
}
