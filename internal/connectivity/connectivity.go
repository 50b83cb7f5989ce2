package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Checker reports whether the network is reachable.
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a Checker with a fixed answer. Static(false) forces offline mode.
type Static bool

// Online returns the fixed answer.
func (s Static) Online(context.Context) bool {
	return bool(s)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Probe detects connectivity with a HEAD request to a well-known URL.
// Any HTTP response, whatever its status, counts as online. The answer is
// reused for ttl so that per-address checks do not each cost a request.
type Probe struct {
	client  HTTPClient
	url     string
	timeout time.Duration
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	checkedAt time.Time
	online    bool
}

// NewProbe creates a Probe against url.
func NewProbe(client HTTPClient, url string, timeout, ttl time.Duration, log *slog.Logger) *Probe {
	return &Probe{
		client:  client,
		url:     url,
		timeout: timeout,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
	}
}

// Online returns the cached answer while it is fresh, and probes otherwise.
// A probe cut short by ctx is not cached.
func (p *Probe) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		return p.online
	}

	online := p.probe(ctx)
	if ctx.Err() != nil {
		// The caller gave up; the failure says nothing about the network.
		return online
	}

	p.online = online
	p.checkedAt = p.now()

	return p.online
}

func (p *Probe) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to create connectivity probe", "url", p.url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.InfoContext(ctx, "Network unreachable, working offline", "url", p.url, "error", err)
		return false
	}
	resp.Body.Close()

	return true
}
