package gltf

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
)

// DocumentBuilderOption is a functional option for configuring a Document via Parse, FromSource or Open.
type DocumentBuilderOption func(*document)

// WithLogger sets the logger the document and its resources report through.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - DocumentBuilderOption: a function that applies the logger option to a document
func WithLogger(logger *slog.Logger) DocumentBuilderOption {
	return func(d *document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFetcher sets the Fetcher buffers and images are read through.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - DocumentBuilderOption: a function that applies the fetcher option to a document
func WithFetcher(f loader.Fetcher) DocumentBuilderOption {
	return func(d *document) {
		d.fetcher = f
	}
}

// WithBaseURI sets the location relative resource URIs are resolved against, overriding the
// location the source was read from.
//
// Parameters:
//   - uri: the base location
//
// Returns:
//   - DocumentBuilderOption: a function that applies the base URI option to a document
func WithBaseURI(uri string) DocumentBuilderOption {
	return func(d *document) {
		d.baseURI = uri
	}
}

// WithDecodeWorkers sets how many goroutines decode images. Defaults to one less than the CPU count.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - DocumentBuilderOption: a function that applies the worker count option to a document
func WithDecodeWorkers(n int) DocumentBuilderOption {
	return func(d *document) {
		if n > 0 {
			d.decodeWorkers = n
		}
	}
}

// WithShaders replaces the shaders used by the document's materials. The default material is not affected.
//
// Parameters:
//   - vertex: the vertex stage
//   - fragment: the fragment stage
//
// Returns:
//   - DocumentBuilderOption: a function that applies the shader option to a document
func WithShaders(vertex, fragment shader.Shader) DocumentBuilderOption {
	return func(d *document) {
		d.vertexShader, d.fragmentShader = vertex, fragment
	}
}
