package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrFetchStatus is returned when an HTTP fetch answers with a non-2xx status.
	ErrFetchStatus = errors.New("unexpected HTTP status")
	// ErrBufferSizeMismatch is returned when fetched buffer data is shorter than its declared length.
	ErrBufferSizeMismatch = errors.New("buffer size mismatch")
)

// fetcher is the implementation of the Fetcher interface.
type fetcher struct {
	baseDir string
	fsys    fs.FS
	client  *http.Client
	logger  *slog.Logger

	group singleflight.Group
}

// Fetcher resolves resource URIs to bytes. Data URIs are decoded inline, http and https URIs
// are requested over the network, everything else is a file path.
// Concurrent fetches of the same URI share one read; the returned slice must not be modified.
type Fetcher interface {
	// Fetch returns the bytes behind uri.
	//
	// Parameters:
	//   - ctx: cancels the wait, and the request for network URIs
	//   - uri: a data URI, an http(s) URL or a slash separated file path
	//
	// Returns:
	//   - []byte: the resource bytes
	//   - error: error if the resource cannot be read
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

var _ Fetcher = &fetcher{}

// NewFetcher creates a Fetcher. Without options files are read relative to the working directory.
//
// Parameters:
//   - options: a variadic list of FetcherBuilderOption functions
//
// Returns:
//   - Fetcher: the new fetcher
func NewFetcher(options ...FetcherBuilderOption) Fetcher {
	f := &fetcher{
		client: http.DefaultClient,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

func (f *fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if IsDataURI(uri) {
		data, _, err := DecodeDataURI(uri)
		return data, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared read must not die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(uri, func() (any, error) {
		return f.fetch(shared, uri)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.([]byte)
		f.logger.Debug("fetched resource", "uri", uri, "bytes", len(data), "shared", res.Shared)
		return data, nil
	}
}

func (f *fetcher) fetch(ctx context.Context, uri string) ([]byte, error) {
	if u, err := url.Parse(uri); err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.fetchHTTP(ctx, uri)
		case "file":
			return f.readFile(u.Path)
		}
	}
	p, err := url.PathUnescape(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid resource path %q: %w", uri, err)
	}
	return f.readFile(p)
}

func (f *fetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", uri, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s for %q", ErrFetchStatus, resp.Status, uri)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %q: %w", uri, err)
	}
	return data, nil
}

// readFile reads a slash separated path from the configured fs.FS, or from disk relative to baseDir.
func (f *fetcher) readFile(p string) ([]byte, error) {
	if f.fsys != nil {
		name := path.Clean(strings.TrimPrefix(p, "/"))
		data, err := fs.ReadFile(f.fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load resource %q: %w", p, err)
		}
		return data, nil
	}

	full := filepath.FromSlash(p)
	if !filepath.IsAbs(full) && f.baseDir != "" {
		full = filepath.Join(f.baseDir, full)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource %q: %w", p, err)
	}
	return data, nil
}

// ResolveURI resolves a resource reference found in a description against the URI the
// description was read from. Data URIs, absolute URLs and absolute paths are returned unchanged.
//
// Parameters:
//   - base: the URI of the description, empty when it was not read from a location
//   - ref: the reference to resolve
//
// Returns:
//   - string: the resolved URI
func ResolveURI(base, ref string) string {
	if base == "" || ref == "" || IsDataURI(ref) || strings.HasPrefix(ref, "/") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && len(u.Scheme) > 1 {
		return ref
	}
	if b, err := url.Parse(base); err == nil && (b.Scheme == "http" || b.Scheme == "https") {
		if r, err := url.Parse(ref); err == nil {
			return b.ResolveReference(r).String()
		}
	}
	return path.Join(path.Dir(filepath.ToSlash(base)), ref)
}
