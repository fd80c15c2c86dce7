// Package assets reads the library's static files (manifest, word
// translations, featured list, EPUB binaries) from a directory or over HTTP.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Asset names relative to the library root.
const (
	ManifestName             = "epubs/manifest.json"
	TranslationsName         = "word-translations.json"
	ExtendedTranslationsName = "word-translations-extended.json"
	FeaturedName             = "featured-books.json"
	EPUBDir                  = "epubs"
)

// DefaultTimeout bounds a single HTTP fetch, including reading the body.
const DefaultTimeout = 30 * time.Second

// Source opens library assets by slash-separated name.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FetchError reports an asset that could not be fetched. Status is the HTTP
// status, or 0 for transport failures.
type FetchError struct {
	Name   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("failed to fetch %s: %d: %v", e.Name, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("failed to fetch %s: %d", e.Name, e.Status)
	default:
		return fmt.Sprintf("failed to fetch %s: %v", e.Name, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of the failed fetch.
func (e *FetchError) StatusCode() int { return e.Status }

// IsNotFound reports whether err is a FetchError for a missing asset.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Status == http.StatusNotFound
}

func cleanName(name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid asset name %q", name)
	}
	return name, nil
}

// HTTPSource fetches assets below a base URL.
type HTTPSource struct {
	BaseURL *url.URL
	Client  *http.Client
	// Timeout bounds each Open, including the body read. Zero selects
	// DefaultTimeout.
	Timeout time.Duration
}

// NewHTTPSource parses baseURL.
func NewHTTPSource(baseURL string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid asset URL %q: scheme must be http or https", baseURL)
	}
	return &HTTPSource{BaseURL: u, Client: http.DefaultClient, Timeout: timeout}, nil
}

// cancelOnClose releases the request context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	target := s.BaseURL.JoinPath(strings.Split(name, "/")...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		cancel()
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		cancel()
		return nil, &FetchError{Name: name, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, &FetchError{Name: name, Status: resp.StatusCode}
	}
	return cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// DirSource reads assets from a file system, usually os.DirFS(root).
type DirSource struct {
	FS fs.FS
}

func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := s.FS.Open(path.Clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{Name: name, Status: http.StatusNotFound, Err: err}
		}
		return nil, &FetchError{Name: name, Err: err}
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, &FetchError{Name: name, Status: http.StatusNotFound, Err: fs.ErrNotExist}
	}
	return f, nil
}
