// Package loader decodes glTF descriptions from text, bare objects, binary blobs and GLB
// containers, validates their structure, and fetches the resources they reference.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	fetcher Fetcher
	logger  *slog.Logger

	sourceCache map[string]*Source
}

// Loader reads descriptions by URI through a Fetcher and caches the decoded sources.
type Loader interface {
	// Load fetches, decodes and validates the description at uri.
	// A cached source is returned when uri was loaded before.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - uri: where the description lives
	//
	// Returns:
	//   - *Source: the decoded source with BaseURI set to uri
	//   - error: error if fetching or decoding fails
	Load(ctx context.Context, uri string) (*Source, error)

	// Get retrieves a cached source. Returns nil if uri was never loaded.
	//
	// Parameters:
	//   - uri: the cache key
	//
	// Returns:
	//   - *Source: the cached source or nil
	Get(uri string) *Source

	// Evict drops uri from the cache so the next Load reads it again.
	//
	// Parameters:
	//   - uri: the cache key
	Evict(uri string)

	// Sources returns a copy of the cache.
	//
	// Returns:
	//   - map[string]*Source: cached sources keyed by URI
	Sources() map[string]*Source

	// Fetcher returns the fetcher used for descriptions. Documents use it for their resources too.
	//
	// Returns:
	//   - Fetcher: the fetcher
	Fetcher() Fetcher
}

var _ Loader = &loader{}

// NewLoader creates a Loader.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		logger:      slog.Default(),
		sourceCache: make(map[string]*Source),
	}
	for _, option := range options {
		option(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewFetcher(WithFetcherLogger(l.logger))
	}
	return l
}

func (l *loader) Load(ctx context.Context, uri string) (*Source, error) {
	if cached := l.Get(uri); cached != nil {
		l.logger.Debug("description cache hit", "uri", uri)
		return cached, nil
	}

	data, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", uri, err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", uri, err)
	}
	src.BaseURI = uri

	l.mu.Lock()
	if cached, ok := l.sourceCache[uri]; ok {
		src = cached
	} else {
		l.sourceCache[uri] = src
	}
	l.mu.Unlock()

	l.logger.Info("loaded description", "uri", uri,
		"nodes", len(src.Document.Nodes), "meshes", len(src.Document.Meshes), "glb", src.BinaryChunk != nil)
	return src, nil
}

func (l *loader) Get(uri string) *Source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sourceCache[uri]
}

func (l *loader) Evict(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sourceCache, uri)
}

func (l *loader) Sources() map[string]*Source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.sourceCache)
}

func (l *loader) Fetcher() Fetcher {
	return l.fetcher
}
