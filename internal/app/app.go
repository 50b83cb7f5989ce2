package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/UnknownOlympus/paperroute/internal/service"
)

// ErrUnknownDelivery is returned for delivery ids that are not part of the current route.
var ErrUnknownDelivery = errors.New("unknown delivery")

// RefreshResult reports what a Refresh did.
type RefreshResult struct {
	Changed   bool                 `json:"changed"`
	Source    string               `json:"source"`
	Geocoded  bool                 `json:"geocoded"` // false when another geocoding pass was already running
	Geocoding service.ResolveStats `json:"geocoding"`
}

// App owns the store, the services and the current route.
// The route is replaced as a whole, never mutated while published.
type App struct {
	log          *slog.Logger
	store        repository.Store
	resolver     *service.GeocodeResolver
	synchronizer *service.RouteSynchronizer
	tracker      *service.CompletionTracker

	mu       sync.RWMutex
	route    *models.Route
	source   string
	loadedAt time.Time
}

func New(
	log *slog.Logger,
	store repository.Store,
	resolver *service.GeocodeResolver,
	synchronizer *service.RouteSynchronizer,
	tracker *service.CompletionTracker,
) *App {
	return &App{
		log:          log,
		store:        store,
		resolver:     resolver,
		synchronizer: synchronizer,
		tracker:      tracker,
	}
}

// Open initializes the store and restores progress and the geocode cache.
// A store that cannot be initialized is logged and otherwise tolerated: progress
// and the cache start empty and writes fail without stopping the app.
func (a *App) Open(ctx context.Context) {
	if err := a.store.Init(ctx); err != nil {
		a.log.ErrorContext(ctx, "Failed to initialize store, continuing without persistence", "error", err)
	}

	a.tracker.Load(ctx)
	a.resolver.LoadCache(ctx)
}

// Start opens the app and loads the route. Geocoding is left to the caller.
// The only error is ErrDataUnavailable, when no route could be loaded at all.
func (a *App) Start(ctx context.Context) error {
	a.Open(ctx)

	if _, err := a.Load(ctx); err != nil {
		return err
	}

	return nil
}

// Load synchronizes the route and publishes it.
func (a *App) Load(ctx context.Context) (*service.SyncResult, error) {
	result, err := a.synchronizer.LoadRoute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load route: %w", err)
	}

	a.mu.Lock()
	a.route = result.Route
	a.source = result.Source
	a.loadedAt = time.Now()
	a.mu.Unlock()

	a.log.InfoContext(ctx, "Route loaded",
		"route", result.Route.Metadata.RouteCode,
		"deliveries", result.Route.Total(),
		"source", result.Source,
		"changed", result.Changed,
	)

	return result, nil
}

// Geocode fills in missing coordinates of the current route. The pass works on a
// copy that is published when it completes.
func (a *App) Geocode(ctx context.Context) (service.ResolveStats, bool) {
	a.mu.RLock()
	current := a.route
	a.mu.RUnlock()

	if current == nil {
		return service.ResolveStats{}, false
	}

	work := current.Clone()
	stats, ok := a.resolver.ResolveAll(ctx, work)
	if !ok {
		return stats, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.route == current {
		a.route = work
		return stats, true
	}

	// The route was replaced during the pass; fill the new one from the cache.
	next := a.route.Clone()
	for street, delivery := range next.Deliveries() {
		if delivery.HasCoordinates() {
			continue
		}
		if coords, found := a.resolver.Lookup(street.Address(delivery)); found {
			delivery.SetCoordinates(*coords)
		}
	}
	a.route = next

	return stats, true
}

// Refresh reloads the route and geocodes it.
func (a *App) Refresh(ctx context.Context) (*RefreshResult, error) {
	loaded, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	stats, ok := a.Geocode(ctx)

	return &RefreshResult{
		Changed:   loaded.Changed,
		Source:    loaded.Source,
		Geocoded:  ok,
		Geocoding: stats,
	}, nil
}

// Route returns a copy of the current route.
func (a *App) Route() (*models.Route, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.route == nil {
		return nil, service.ErrDataUnavailable
	}

	return a.route.Clone(), nil
}

// View returns the current route annotated with completion state.
func (a *App) View() (*RouteView, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.route == nil {
		return nil, service.ErrDataUnavailable
	}

	view := &RouteView{
		Metadata: a.route.Metadata,
		Streets:  make([]StreetView, 0, len(a.route.DeliveryRoute)),
		Stats:    a.tracker.Stats(a.route),
		Source:   a.source,
		LoadedAt: a.loadedAt,
	}
	for si := range a.route.DeliveryRoute {
		street := &a.route.DeliveryRoute[si]
		sv := StreetView{
			Street:     street.Street,
			City:       street.City,
			Deliveries: make([]DeliveryView, 0, len(street.Deliveries)),
		}
		for di := range street.Deliveries {
			sv.Deliveries = append(sv.Deliveries, a.deliveryView(street, &street.Deliveries[di]))
		}
		view.Streets = append(view.Streets, sv)
	}

	return view, nil
}

// Markers groups the located deliveries into one marker per address, in route order.
func (a *App) Markers() ([]MarkerView, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.route == nil {
		return nil, service.ErrDataUnavailable
	}

	var markers []MarkerView
	byAddress := make(map[string]int)
	for street, delivery := range a.route.Located() {
		view := a.deliveryView(street, delivery)
		key := street.Street + "|" + delivery.HouseNumber

		idx, ok := byAddress[key]
		if !ok {
			idx = len(markers)
			byAddress[key] = idx
			markers = append(markers, MarkerView{
				Street:      street.Street,
				City:        street.City,
				HouseNumber: delivery.HouseNumber,
				Lat:         *delivery.Lat,
				Lon:         *delivery.Lon,
			})
		}

		markers[idx].DeliveryIDs = append(markers[idx].DeliveryIDs, view.ID)
		markers[idx].Deliveries = append(markers[idx].Deliveries, view)
	}

	if markers == nil {
		return []MarkerView{}, nil
	}
	for i := range markers {
		markers[i].Status = markerStatus(markers[i].Deliveries)
	}

	return markers, nil
}

// Delivery looks up a single delivery of the current route.
func (a *App) Delivery(id string) (*DeliveryView, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.route == nil {
		return nil, service.ErrDataUnavailable
	}

	street, delivery, ok := a.route.DeliveryByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDelivery, id)
	}

	view := a.deliveryView(street, delivery)

	return &view, nil
}

// Toggle flips the completion state of a delivery of the current route.
func (a *App) Toggle(ctx context.Context, id string) (bool, error) {
	if _, err := a.Delivery(id); err != nil {
		return false, err
	}

	return a.tracker.Toggle(ctx, id)
}

// Reset clears all progress.
func (a *App) Reset(ctx context.Context) error {
	return a.tracker.Reset(ctx)
}

// Completed returns the completed delivery ids.
func (a *App) Completed() []string {
	return a.tracker.Completed()
}

// Stats returns progress over the current route.
func (a *App) Stats() models.Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.tracker.Stats(a.route)
}

// Ping checks that the store is reachable.
func (a *App) Ping(ctx context.Context) error {
	return a.store.Ping(ctx)
}

// Close releases the store.
func (a *App) Close() {
	a.store.Close()
}

func (a *App) deliveryView(street *models.Street, delivery *models.Delivery) DeliveryView {
	view := DeliveryView{
		ID:          delivery.ID,
		Street:      street.Street,
		City:        street.City,
		HouseNumber: delivery.HouseNumber,
		Newspaper:   delivery.Newspaper,
		Name:        delivery.Name,
		Completed:   a.tracker.IsCompleted(delivery.ID),
	}
	if coords := delivery.Coordinates(); coords != nil {
		view.Lat, view.Lon = &coords.Latitude, &coords.Longitude
	}

	return view
}
