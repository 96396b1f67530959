package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gltf/engine/gltf"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithLogger sets the logger shared by the engine, its loader, renderer and profiler.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLoader sets the loader Open reads descriptions through, rather than letting the engine
// create one with the default fetcher.
//
// Parameters:
//   - l: a configured Loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithDocumentOptions sets options passed to every document built by Open.
//
// Parameters:
//   - options: document options such as gltf.WithDecodeWorkers or gltf.WithShaders
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDocumentOptions(options ...gltf.DocumentBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.docOptions = append(e.docOptions, options...)
	}
}

// WithSettings applies render settings to the engine's RenderContext and initial viewport.
//
// Parameters:
//   - s: settings, typically from renderer.LoadSettingsFile
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettings(s renderer.Settings) EngineBuilderOption {
	return func(e *engine) {
		s.Apply(e.rc)
		e.width, e.height = s.Viewport.Width, s.Viewport.Height
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickCallback registers the function called at the start of each frame.
//
// Parameters:
//   - callback: receives the delta time in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickCallback(callback func(deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
