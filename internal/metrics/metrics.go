package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Geocode lookup results.
const (
	ResultCacheHit = "cache_hit"
	ResultResolved = "resolved"
	ResultNotFound = "not_found"
	ResultFailed   = "failed"
	ResultOffline  = "offline"
)

// Route load sources.
const (
	SourceNetwork = "network"
	SourceCache   = "cache"
	SourceNone    = "none"
)

type Metrics struct {
	GeocodeLookups      *prometheus.CounterVec
	ProviderErrors      prometheus.Counter
	RequestSeconds      *prometheus.HistogramVec
	GeocodingInFlight   prometheus.Gauge
	RouteLoads          *prometheus.CounterVec
	RouteChanges        prometheus.Counter
	CompletedDeliveries prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "paperroute_geocode_lookups_total",
			Help: "Total number of address lookups by result.",
		}, []string{"result"}),
		ProviderErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "paperroute_geocoding_provider_errors_total",
			Help: "Total number of errors received from the geocoding provider.",
		}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperroute_geocoding_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GeocodingInFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "paperroute_geocoding_in_flight",
			Help: "Whether a full geocoding pass is currently running.",
		}),
		RouteLoads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "paperroute_route_loads_total",
			Help: "Total number of route loads by the source that won.",
		}, []string{"source"}),
		RouteChanges: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "paperroute_route_changes_total",
			Help: "Total number of times a fetched route differed from the stored snapshot.",
		}),
		CompletedDeliveries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "paperroute_completed_deliveries",
			Help: "Current number of deliveries marked as done.",
		}),
	}
}
