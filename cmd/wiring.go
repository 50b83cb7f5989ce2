package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/app"
	"github.com/UnknownOlympus/paperroute/internal/config"
	"github.com/UnknownOlympus/paperroute/internal/connectivity"
	"github.com/UnknownOlympus/paperroute/internal/geocoding"
	"github.com/UnknownOlympus/paperroute/internal/metrics"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/UnknownOlympus/paperroute/internal/routefeed"
	"github.com/UnknownOlympus/paperroute/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// probeTTL is how long a connectivity answer is reused.
const probeTTL = 30 * time.Second

// buildApp wires the store, the provider and the services from the configuration.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app.App, error) {
	store := openStore(ctx, cfg, logger)

	provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider.Type),
		APIKey:    cfg.Provider.APIKey,
		BaseURL:   cfg.Provider.BaseURL,
		UserAgent: cfg.Provider.UserAgent,
		Region:    cfg.Geocode.Region,
		Logger:    logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type)

	var online connectivity.Checker = connectivity.Static(false)
	if !cfg.Offline {
		online = connectivity.NewProbe(
			&http.Client{Timeout: cfg.Geocode.RequestTimeout},
			cfg.ProbeURL,
			cfg.Geocode.RequestTimeout,
			probeTTL,
			logger,
		)
	}

	appMetrics := metrics.NewMetrics(reg)
	source := routefeed.NewSource(cfg.RouteSource, cfg.Geocode.RequestTimeout, logger)

	resolver := service.NewGeocodeResolver(logger, store, provider, online, appMetrics, service.ResolverConfig{
		ProviderName:   cfg.Provider.Type,
		Country:        cfg.Geocode.Country,
		MinInterval:    cfg.Geocode.Interval,
		RequestTimeout: cfg.Geocode.RequestTimeout,
	})
	synchronizer := service.NewRouteSynchronizer(logger, store, source, online, appMetrics, cfg.Geocode.RequestTimeout)
	tracker := service.NewCompletionTracker(logger, store, appMetrics)

	return app.New(logger, store, resolver, synchronizer, tracker), nil
}

// openStore opens the store selected by the configuration. It is not initialized yet.
// Storage that cannot be opened is replaced by an UnavailableStore, so the route
// can still be served without persistence.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) repository.Store {
	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Store unavailable, continuing without persistence", "driver", cfg.Store.Driver, "error", err)
		return repository.UnavailableStore{Cause: err}
	}

	return store
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db := cfg.Store.Database
		pool, err := repository.NewDatabase(ctx, db.Host, db.Port, db.User, db.Password, db.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		return repository.NewPostgresStore(pool, logger), nil
	default:
		store, err := repository.NewSQLiteStore(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}

		return store, nil
	}
}

// explain turns the unrecoverable start-up error into advice for the carrier.
func explain(err error) error {
	if errors.Is(err, service.ErrDataUnavailable) {
		return fmt.Errorf("%w\nno route has been downloaded yet: connect to the internet and try again", err)
	}

	return err
}
