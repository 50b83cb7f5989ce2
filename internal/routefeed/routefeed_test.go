package routefeed_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/paperroute/internal/routefeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `{"metadata":{"route_code":"R1"},"delivery_route":[]}`

func TestHTTPSource_Fetch(t *testing.T) {
	logger := slog.Default()

	t.Run("bypasses intermediate caches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
			assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
			_, _ = w.Write([]byte(document))
		}))
		defer server.Close()

		source := routefeed.NewHTTPSource(server.Client(), server.URL+"/sample.json", logger)
		body, err := source.Fetch(t.Context())

		require.NoError(t, err)
		assert.JSONEq(t, document, string(body))
	})

	t.Run("non-200 status fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Offline - content not available", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		source := routefeed.NewHTTPSource(server.Client(), server.URL, logger)
		body, err := source.Fetch(t.Context())

		require.Nil(t, body)
		require.ErrorIs(t, err, routefeed.ErrFetchFailed)
		assert.Contains(t, err.Error(), "status 503")
	})

	t.Run("transport error fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		source := routefeed.NewHTTPSource(http.DefaultClient, url, logger)
		_, err := source.Fetch(t.Context())

		require.ErrorIs(t, err, routefeed.ErrFetchFailed)
	})

	t.Run("context deadline fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		source := routefeed.NewHTTPSource(server.Client(), server.URL, logger)
		_, err := source.Fetch(ctx)

		require.ErrorIs(t, err, routefeed.ErrFetchFailed)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestFileSource_Fetch(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	t.Run("reads file", func(t *testing.T) {
		body, err := routefeed.NewFileSource(path).Fetch(t.Context())

		require.NoError(t, err)
		assert.JSONEq(t, document, string(body))
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := routefeed.NewFileSource(filepath.Join(dir, "missing.json")).Fetch(t.Context())

		require.ErrorIs(t, err, routefeed.ErrFetchFailed)
	})
}

func TestNewSource(t *testing.T) {
	logger := slog.Default()

	_, isHTTP := routefeed.NewSource("https://example.org/sample.json", time.Second, logger).(*routefeed.HTTPSource)
	assert.True(t, isHTTP)

	_, isFile := routefeed.NewSource("sample.json", time.Second, logger).(*routefeed.FileSource)
	assert.True(t, isFile)
}
