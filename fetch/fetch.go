// Package fetch downloads tile images from tile servers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrNotFound  = errors.New("flightmap: tile not found")
	ErrTransient = errors.New("flightmap: tile temporarily unavailable")
)

const UserAgent = "go-flightmap/1.0"

// Fetcher retrieves the bytes of one tile image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Error describes a failed fetch. It matches ErrNotFound or ErrTransient
// with errors.Is.
type Error struct {
	URL        string
	StatusCode int // 0 when no response was received
	NotFound   bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.NotFound
	case ErrTransient:
		return !e.NotFound
	}
	return false
}

// HTTPFetcher fetches tiles over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

type HTTPOption func(*HTTPFetcher)

// WithTimeout bounds each request. There is no timeout by default; callers
// cancel through the context.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) { f.client.Timeout = timeout }
}

func WithUserAgent(userAgent string) HTTPOption {
	return func(f *HTTPFetcher) { f.userAgent = userAgent }
}

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) { f.client = client }
}

// NewHTTPFetcher returns a fetcher that honors the system proxy settings.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		userAgent: UserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, NotFound: true, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case isTransient(resp.StatusCode):
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{URL: url, StatusCode: resp.StatusCode}
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, NotFound: true}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{URL: url, NotFound: true, Err: errors.New("empty body")}
	}
	return data, nil
}

// isTransient reports whether a status means the server may serve the tile
// later: rate limiting (some servers answer 403) and server errors.
func isTransient(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests || status >= 500
}
