package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/connectivity"
	"github.com/UnknownOlympus/paperroute/internal/geocoding"
	"github.com/UnknownOlympus/paperroute/internal/metrics"
	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"golang.org/x/time/rate"
)

// Defaults for ResolverConfig.
const (
	DefaultMinInterval    = time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// ResolverConfig tunes the GeocodeResolver.
type ResolverConfig struct {
	ProviderName   string        // Provider name for metrics labeling
	Country        string        // Country appended to every query
	MinInterval    time.Duration // Minimum delay between consecutive provider lookups
	RequestTimeout time.Duration // Timeout of a single provider lookup
}

// ResolveStats summarizes a ResolveAll pass.
type ResolveStats struct {
	Resolved int `json:"resolved"` // fetched from the provider during this pass
	Cached   int `json:"cached"`   // filled from the geocode cache
	Failed   int `json:"failed"`   // left without coordinates, retried on the next pass
}

// GeocodeResolver resolves delivery addresses to coordinates. It consults its
// cache first, skips the network when offline and spaces provider lookups by
// at least MinInterval. Unresolved addresses are never cached; they are
// retried on the next pass, which is always caller-driven.
type GeocodeResolver struct {
	log      *slog.Logger         // Logger for logging resolver activities
	store    repository.Store     // Durable copy of the geocode cache
	provider geocoding.Provider   // External geocoding service
	online   connectivity.Checker // Network availability
	metrics  *metrics.Metrics     // Metrics for tracking lookups
	cfg      ResolverConfig
	limiter  *rate.Limiter // Spaces provider lookups by MinInterval
	callMu   sync.Mutex    // Serializes provider lookups

	mu    sync.RWMutex
	cache map[string]models.Coordinates

	inFlight atomic.Bool
}

// NewGeocodeResolver creates a resolver with an empty cache. Call LoadCache to warm it from the store.
func NewGeocodeResolver(
	log *slog.Logger,
	store repository.Store,
	provider geocoding.Provider,
	online connectivity.Checker,
	metrics *metrics.Metrics,
	cfg ResolverConfig,
) *GeocodeResolver {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Country == "" {
		cfg.Country = models.DefaultCountry
	}

	return &GeocodeResolver{
		log:      log,
		store:    store,
		provider: provider,
		online:   online,
		metrics:  metrics,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		cache:    make(map[string]models.Coordinates),
	}
}

// LoadCache replaces the in-memory cache with the persisted one.
// A store failure leaves the resolver with an empty cache.
func (gr *GeocodeResolver) LoadCache(ctx context.Context) {
	cache := make(map[string]models.Coordinates)
	defer func() {
		gr.mu.Lock()
		gr.cache = cache
		gr.mu.Unlock()
	}()

	raw, err := gr.store.GetAll(ctx, repository.PartitionGeocache)
	if err != nil {
		gr.log.ErrorContext(ctx, "Failed to load geocode cache", "error", err)
		return
	}

	entries, skipped := repository.DecodeAll[models.GeocodeEntry](raw)
	for _, entry := range entries {
		cache[entry.Key] = entry.Value
	}
	if skipped > 0 {
		gr.log.WarnContext(ctx, "Skipped undecodable geocode cache entries", "count", skipped)
	}

	gr.log.InfoContext(ctx, "Loaded geocode cache", "addresses", len(cache))
}

// Len returns the number of cached addresses.
func (gr *GeocodeResolver) Len() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()

	return len(gr.cache)
}

// Lookup returns the cached coordinates of addr without any network activity.
func (gr *GeocodeResolver) Lookup(addr models.Address) (*models.Coordinates, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()

	coords, ok := gr.cache[addr.Key()]
	if !ok {
		return nil, false
	}

	return &coords, true
}

// Resolve returns the coordinates of addr, or nil when they cannot be resolved right now.
// Nil covers offline, provider errors and addresses the provider does not know alike.
func (gr *GeocodeResolver) Resolve(ctx context.Context, addr models.Address) *models.Coordinates {
	coords, _ := gr.resolve(ctx, addr)
	return coords
}

func (gr *GeocodeResolver) resolve(ctx context.Context, addr models.Address) (*models.Coordinates, string) {
	key := addr.Key()

	if coords, ok := gr.Lookup(addr); ok {
		gr.log.DebugContext(ctx, "Cache hit", "key", key)
		gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultCacheHit).Inc()
		return coords, metrics.ResultCacheHit
	}

	if !gr.online.Online(ctx) {
		gr.log.DebugContext(ctx, "Offline, cannot geocode", "key", key)
		gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultOffline).Inc()
		return nil, metrics.ResultOffline
	}

	query := addr.Query(gr.cfg.Country)

	coords, err := gr.throttledGeocode(ctx, query)
	if errors.Is(err, errThrottled) {
		gr.log.DebugContext(ctx, "Geocoding interrupted while waiting", "key", key, "error", err)
		gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, metrics.ResultFailed
	}

	if errors.Is(err, geocoding.ErrNotFound) {
		gr.log.WarnContext(ctx, "No results for address", "query", query)
		gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, metrics.ResultNotFound
	}
	if err != nil {
		gr.log.ErrorContext(ctx, "Failed to geocode", "query", query, "error", err)
		gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultFailed).Inc()
		gr.metrics.ProviderErrors.Inc()
		return nil, metrics.ResultFailed
	}

	gr.remember(ctx, key, *coords)
	gr.metrics.GeocodeLookups.WithLabelValues(metrics.ResultResolved).Inc()

	return coords, metrics.ResultResolved
}

// errThrottled is returned when the context ends while waiting for the limiter.
var errThrottled = errors.New("geocoding rate limit wait aborted")

// throttledGeocode runs one provider lookup at a time, each starting at least
// MinInterval after the previous one started.
func (gr *GeocodeResolver) throttledGeocode(ctx context.Context, query string) (*models.Coordinates, error) {
	gr.callMu.Lock()
	defer gr.callMu.Unlock()

	if err := gr.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", errThrottled, err)
	}

	return gr.geocode(ctx, query)
}

// geocode performs one provider lookup bounded by the request timeout.
func (gr *GeocodeResolver) geocode(ctx context.Context, query string) (*models.Coordinates, error) {
	ctx, cancel := context.WithTimeout(ctx, gr.cfg.RequestTimeout)
	defer cancel()

	gr.log.DebugContext(ctx, "Geocoding", "query", query)

	startTime := time.Now()
	coords, err := gr.provider.Geocode(ctx, query)
	gr.metrics.RequestSeconds.WithLabelValues(gr.cfg.ProviderName).Observe(time.Since(startTime).Seconds())

	return coords, err
}

// remember caches coords in memory and persists them. A failed write only costs
// a lookup on the next start, so it is logged and otherwise ignored.
func (gr *GeocodeResolver) remember(ctx context.Context, key string, coords models.Coordinates) {
	gr.mu.Lock()
	gr.cache[key] = coords
	gr.mu.Unlock()

	if err := gr.store.Put(ctx, repository.PartitionGeocache, models.GeocodeEntry{Key: key, Value: coords}); err != nil {
		gr.log.ErrorContext(ctx, "Failed to save geocode cache", "key", key, "error", err)
	}
}

// ResolveAll fills in coordinates for every delivery of route that lacks them,
// in street-then-delivery order. Deliveries are updated in place.
// While a pass is running, further calls return immediately with ok=false.
func (gr *GeocodeResolver) ResolveAll(ctx context.Context, route *models.Route) (ResolveStats, bool) {
	var stats ResolveStats
	if route == nil {
		return stats, false
	}

	if !gr.inFlight.CompareAndSwap(false, true) {
		gr.log.InfoContext(ctx, "Geocoding pass already running, skipping")
		return stats, false
	}
	defer gr.inFlight.Store(false)

	gr.metrics.GeocodingInFlight.Set(1)
	defer gr.metrics.GeocodingInFlight.Set(0)

	for street, delivery := range route.Deliveries() {
		if delivery.HasCoordinates() {
			continue
		}

		coords, result := gr.resolve(ctx, street.Address(delivery))
		switch {
		case coords == nil:
			stats.Failed++
		case result == metrics.ResultCacheHit:
			stats.Cached++
		default:
			stats.Resolved++
		}

		if coords != nil {
			delivery.SetCoordinates(*coords)
		}
	}

	gr.log.InfoContext(ctx, "Geocoding complete",
		"new", stats.Resolved,
		"cached", stats.Cached,
		"failed", stats.Failed,
	)

	return stats, true
}
