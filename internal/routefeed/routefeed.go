package routefeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrFetchFailed is returned when the route document could not be retrieved.
var ErrFetchFailed = errors.New("route fetch failed")

// maxDocumentSize bounds the route document read into memory.
const maxDocumentSize = 10 << 20

// Source yields the raw route document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource fetches the route document over HTTP, always asking for the live
// version rather than an intermediate cached response.
type HTTPSource struct {
	client HTTPClient
	url    string
	log    *slog.Logger
}

// NewHTTPSource creates an HTTPSource for url.
func NewHTTPSource(client HTTPClient, url string, log *slog.Logger) *HTTPSource {
	return &HTTPSource{client: client, url: url, log: log}
}

// Fetch downloads the document. Any non-200 answer is a failure.
func (hs *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hs.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	hs.log.DebugContext(ctx, "Checking for route data updates", "url", hs.url)

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrFetchFailed, err)
	}

	return body, nil
}

// FileSource reads the route document from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the file.
func (fs *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	body, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return body, nil
}

// NewSource picks an HTTPSource for http(s) locations and a FileSource otherwise.
func NewSource(location string, timeout time.Duration, log *slog.Logger) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(&http.Client{Timeout: timeout}, location, log)
	}

	return NewFileSource(location)
}
