package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFetcher sets the Fetcher descriptions are read through.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a loader
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

// WithLogger sets the logger used by the Loader and by its default Fetcher.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSource pre-populates the cache with a source.
//
// Parameters:
//   - uri: the cache key
//   - src: the source to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the source option to a loader
func WithSource(uri string, src *Source) LoaderBuilderOption {
	return func(l *loader) {
		l.sourceCache[uri] = src
	}
}
