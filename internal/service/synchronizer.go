package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/connectivity"
	"github.com/UnknownOlympus/paperroute/internal/metrics"
	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/UnknownOlympus/paperroute/internal/routefeed"
	"golang.org/x/sync/errgroup"
)

// ErrDataUnavailable is returned when there is neither a stored snapshot nor a usable fetched route.
var ErrDataUnavailable = errors.New("route data unavailable: no cached snapshot and unable to fetch from network")

// SyncResult is the outcome of LoadRoute.
type SyncResult struct {
	Route   *models.Route
	Changed bool   // the fetched route differed from the snapshot and was persisted
	Source  string // metrics.SourceNetwork or metrics.SourceCache
}

// RouteSynchronizer decides whether the route comes from the network or from the stored snapshot.
type RouteSynchronizer struct {
	log     *slog.Logger
	store   repository.Store
	source  routefeed.Source
	online  connectivity.Checker
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time

	mu sync.Mutex
}

// NewRouteSynchronizer creates a synchronizer. A non-positive timeout falls back to DefaultRequestTimeout.
func NewRouteSynchronizer(
	log *slog.Logger,
	store repository.Store,
	source routefeed.Source,
	online connectivity.Checker,
	metrics *metrics.Metrics,
	timeout time.Duration,
) *RouteSynchronizer {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return &RouteSynchronizer{
		log:     log,
		store:   store,
		source:  source,
		online:  online,
		metrics: metrics,
		timeout: timeout,
		now:     time.Now,
	}
}

// LoadRoute reads the snapshot and fetches the route document concurrently, then
// returns the fetched route when it is usable and the snapshot otherwise. A fetched
// route that differs from the snapshot replaces it. ErrDataUnavailable is returned
// only when both are missing.
func (rs *RouteSynchronizer) LoadRoute(ctx context.Context) (*SyncResult, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var (
		cached   *models.Route
		fresh    *models.Route
		fetchErr error
		group    errgroup.Group
	)

	group.Go(func() error {
		cached = rs.readSnapshot(ctx)
		return nil
	})

	if rs.online.Online(ctx) {
		group.Go(func() error {
			fresh, fetchErr = rs.fetch(ctx)
			return nil
		})
	} else {
		rs.log.InfoContext(ctx, "Offline, skipping route fetch")
	}

	_ = group.Wait()

	if fetchErr != nil {
		rs.log.WarnContext(ctx, "Failed to fetch route, falling back to stored snapshot", "error", fetchErr)
	}

	var result *SyncResult
	switch {
	case fresh != nil:
		result = &SyncResult{Route: fresh, Source: metrics.SourceNetwork}
		if cached == nil || !reflect.DeepEqual(*fresh, *cached) {
			result.Changed = true
			rs.saveSnapshot(ctx, *fresh)
			rs.metrics.RouteChanges.Inc()
			rs.log.InfoContext(ctx, "Route data updated", "deliveries", fresh.Total())
		} else {
			rs.log.InfoContext(ctx, "Route data is up to date", "deliveries", fresh.Total())
		}
	case cached != nil:
		result = &SyncResult{Route: cached, Source: metrics.SourceCache}
		rs.log.InfoContext(ctx, "Using stored route snapshot", "deliveries", cached.Total())
	default:
		rs.metrics.RouteLoads.WithLabelValues(metrics.SourceNone).Inc()
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, fetchErr)
		}
		return nil, ErrDataUnavailable
	}

	rs.metrics.RouteLoads.WithLabelValues(result.Source).Inc()
	result.Route.AssignIDs()

	return result, nil
}

// readSnapshot returns the stored route, or nil when there is none or it cannot be read.
func (rs *RouteSynchronizer) readSnapshot(ctx context.Context) *models.Route {
	var snapshot models.RouteSnapshot
	found, err := rs.store.Get(ctx, repository.PartitionRoutes, models.SnapshotID, &snapshot)
	if err != nil {
		rs.log.ErrorContext(ctx, "Failed to read route snapshot", "error", err)
		return nil
	}
	if !found || snapshot.Data.DeliveryRoute == nil {
		return nil
	}

	return &snapshot.Data
}

func (rs *RouteSynchronizer) fetch(ctx context.Context) (*models.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	data, err := rs.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	route, err := models.DecodeRoute(data)
	if err != nil {
		return nil, err
	}

	return route, nil
}

func (rs *RouteSynchronizer) saveSnapshot(ctx context.Context, route models.Route) {
	if err := rs.store.Put(ctx, repository.PartitionRoutes, models.NewRouteSnapshot(route, rs.now())); err != nil {
		rs.log.ErrorContext(ctx, "Failed to save route snapshot", "error", err)
	}
}
