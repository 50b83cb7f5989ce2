package app

import (
	"time"

	"github.com/UnknownOlympus/paperroute/internal/models"
)

// DeliveryView is a delivery as shown to the carrier.
type DeliveryView struct {
	ID          string   `json:"id"`
	Street      string   `json:"street"`
	City        string   `json:"city"`
	HouseNumber string   `json:"house_number"`
	Newspaper   string   `json:"newspaper"`
	Name        string   `json:"name,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Completed   bool     `json:"completed"`
}

type StreetView struct {
	Street     string         `json:"street"`
	City       string         `json:"city"`
	Deliveries []DeliveryView `json:"deliveries"`
}

type RouteView struct {
	Metadata models.RouteMetadata `json:"metadata"`
	Streets  []StreetView         `json:"streets"`
	Stats    models.Stats         `json:"stats"`
	Source   string               `json:"source"`
	LoadedAt time.Time            `json:"loaded_at"`
}

// MarkerStatus is the aggregate completion state of the deliveries at one address.
type MarkerStatus string

const (
	MarkerNone    MarkerStatus = "none"
	MarkerPartial MarkerStatus = "partial"
	MarkerAll     MarkerStatus = "all"
)

// MarkerView is one map marker. Deliveries sharing a street and house number
// share a marker, placed at the first of them.
type MarkerView struct {
	Street      string         `json:"street"`
	City        string         `json:"city"`
	HouseNumber string         `json:"house_number"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	Status      MarkerStatus   `json:"status"`
	DeliveryIDs []string       `json:"delivery_ids"`
	Deliveries  []DeliveryView `json:"deliveries"`
}

func markerStatus(deliveries []DeliveryView) MarkerStatus {
	completed := 0
	for _, delivery := range deliveries {
		if delivery.Completed {
			completed++
		}
	}

	switch completed {
	case 0:
		return MarkerNone
	case len(deliveries):
		return MarkerAll
	default:
		return MarkerPartial
	}
}
