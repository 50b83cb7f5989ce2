package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Online(t.Context()))
	assert.False(t, Static(false).Online(t.Context()))
}

func TestProbe_Online(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	current := time.Date(2025, 10, 9, 6, 0, 0, 0, time.UTC)
	probe := NewProbe(server.Client(), server.URL, time.Second, time.Minute, slog.Default())
	probe.now = func() time.Time { return current }

	t.Run("any response counts as online", func(t *testing.T) {
		assert.True(t, probe.Online(t.Context()))
		assert.Equal(t, 1, hits)
	})

	t.Run("answer is reused within ttl", func(t *testing.T) {
		current = current.Add(30 * time.Second)
		assert.True(t, probe.Online(t.Context()))
		assert.Equal(t, 1, hits)
	})

	t.Run("probes again after ttl", func(t *testing.T) {
		current = current.Add(time.Minute)
		assert.True(t, probe.Online(t.Context()))
		assert.Equal(t, 2, hits)
	})
}

func TestProbe_Offline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	probe := NewProbe(http.DefaultClient, url, 200*time.Millisecond, time.Minute, slog.Default())

	assert.False(t, probe.Online(t.Context()))
}

func TestProbe_InvalidURL(t *testing.T) {
	probe := NewProbe(http.DefaultClient, "://bad", time.Second, time.Minute, slog.Default())

	assert.False(t, probe.Online(t.Context()))
}

func TestProbe_CancelledCallerIsNotCached(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	probe := NewProbe(server.Client(), server.URL, time.Second, time.Minute, slog.Default())

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	assert.False(t, probe.Online(cancelled))
	assert.True(t, probe.checkedAt.IsZero())

	assert.True(t, probe.Online(t.Context()))
	assert.Equal(t, 1, hits)
}
