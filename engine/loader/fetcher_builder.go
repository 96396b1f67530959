package loader

import (
	"io/fs"
	"log/slog"
	"net/http"
)

// FetcherBuilderOption is a functional option for configuring a Fetcher via NewFetcher.
type FetcherBuilderOption func(*fetcher)

// WithBaseDir sets the directory relative file paths are read from.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - FetcherBuilderOption: a function that sets the base directory
func WithBaseDir(dir string) FetcherBuilderOption {
	return func(f *fetcher) {
		f.baseDir = dir
	}
}

// WithFS reads file paths from fsys instead of the operating system. WithBaseDir is ignored when set.
//
// Parameters:
//   - fsys: the file system
//
// Returns:
//   - FetcherBuilderOption: a function that sets the file system
func WithFS(fsys fs.FS) FetcherBuilderOption {
	return func(f *fetcher) {
		f.fsys = fsys
	}
}

// WithHTTPClient sets the client used for http and https URIs.
//
// Parameters:
//   - client: the client, nil keeps http.DefaultClient
//
// Returns:
//   - FetcherBuilderOption: a function that sets the client
func WithHTTPClient(client *http.Client) FetcherBuilderOption {
	return func(f *fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithFetcherLogger sets the logger fetches are reported to.
//
// Parameters:
//   - logger: the logger, nil keeps slog.Default()
//
// Returns:
//   - FetcherBuilderOption: a function that sets the logger
func WithFetcherLogger(logger *slog.Logger) FetcherBuilderOption {
	return func(f *fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}
