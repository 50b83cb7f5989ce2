package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"
)

// SnapshotID is the singleton key of the persisted route snapshot.
const SnapshotID = "current"

// ErrMalformedRoute is returned when a route document cannot be decoded or lacks the delivery route.
var ErrMalformedRoute = errors.New("malformed route document")

// RouteMetadata describes the route list the document was generated from.
type RouteMetadata struct {
	DistributionDate string `json:"distribution_date"`
	RouteCode        string `json:"route_code"`
	Area             string `json:"area"`
	DocumentType     string `json:"document_type,omitempty"`
	ElementType      string `json:"element_type,omitempty"`
	ElementNumber    string `json:"element_number,omitempty"`
	GeneratedOn      string `json:"generated_on,omitempty"`
	DocumentNumber   string `json:"document_number,omitempty"`
}

// Delivery is one newspaper drop at one address.
// ID is positional ("streetIndex-deliveryIndex") and is never part of the document.
type Delivery struct {
	ID          string   `json:"-"`
	HouseNumber string   `json:"house_number"`
	Newspaper   string   `json:"newspaper"`
	Name        string   `json:"name,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether the delivery has been geocoded.
func (d *Delivery) HasCoordinates() bool {
	return d.Lat != nil && d.Lon != nil
}

// SetCoordinates stores coords on the delivery.
func (d *Delivery) SetCoordinates(coords Coordinates) {
	lat, lon := coords.Latitude, coords.Longitude
	d.Lat, d.Lon = &lat, &lon
}

// Coordinates returns the delivery position, or nil when it has not been geocoded.
func (d *Delivery) Coordinates() *Coordinates {
	if !d.HasCoordinates() {
		return nil
	}

	return &Coordinates{Latitude: *d.Lat, Longitude: *d.Lon}
}

// Street groups the deliveries of one street in route order.
type Street struct {
	Street     string     `json:"street"`
	City       string     `json:"city"`
	Deliveries []Delivery `json:"deliveries"`
}

// Address returns the address of delivery d on this street.
func (s *Street) Address(d *Delivery) Address {
	return Address{Street: s.Street, HouseNumber: d.HouseNumber, City: s.City}
}

// Route is the full day's delivery assignment, grouped by street.
type Route struct {
	Metadata      RouteMetadata `json:"metadata"`
	DeliveryRoute []Street      `json:"delivery_route"`
}

// RouteSnapshot is the persisted copy of the route document.
type RouteSnapshot struct {
	ID        string `json:"id"`
	Data      Route  `json:"data"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds of the write.
}

// RecordKey returns the snapshot singleton key.
func (s RouteSnapshot) RecordKey() string {
	return s.ID
}

// NewRouteSnapshot wraps route into the current snapshot record.
func NewRouteSnapshot(route Route, now time.Time) RouteSnapshot {
	return RouteSnapshot{ID: SnapshotID, Data: route, Timestamp: now.UnixMilli()}
}

// DecodeRoute parses a route document. It never returns a partially decoded route.
func DecodeRoute(data []byte) (*Route, error) {
	var route Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRoute, err)
	}

	if route.DeliveryRoute == nil {
		return nil, fmt.Errorf("%w: missing delivery_route", ErrMalformedRoute)
	}

	return &route, nil
}

// DeliveryID builds the positional identifier of a delivery.
func DeliveryID(streetIdx, deliveryIdx int) string {
	return strconv.Itoa(streetIdx) + "-" + strconv.Itoa(deliveryIdx)
}

// ParseDeliveryID splits a delivery identifier into its street and delivery indexes.
func ParseDeliveryID(id string) (int, int, bool) {
	streetPart, deliveryPart, found := strings.Cut(id, "-")
	if !found {
		return 0, 0, false
	}

	streetIdx, err := strconv.Atoi(streetPart)
	if err != nil || streetIdx < 0 {
		return 0, 0, false
	}

	deliveryIdx, err := strconv.Atoi(deliveryPart)
	if err != nil || deliveryIdx < 0 {
		return 0, 0, false
	}

	return streetIdx, deliveryIdx, true
}

// AssignIDs sets every delivery ID from its position in the route.
func (r *Route) AssignIDs() {
	for si := range r.DeliveryRoute {
		for di := range r.DeliveryRoute[si].Deliveries {
			r.DeliveryRoute[si].Deliveries[di].ID = DeliveryID(si, di)
		}
	}
}

// Deliveries iterates the route in street-then-delivery order.
// Yielded pointers refer to the route itself, so callers may fill coordinates in place.
func (r *Route) Deliveries() iter.Seq2[*Street, *Delivery] {
	return func(yield func(*Street, *Delivery) bool) {
		for si := range r.DeliveryRoute {
			street := &r.DeliveryRoute[si]
			for di := range street.Deliveries {
				if !yield(street, &street.Deliveries[di]) {
					return
				}
			}
		}
	}
}

// Located iterates only the deliveries that have coordinates, in route order.
func (r *Route) Located() iter.Seq2[*Street, *Delivery] {
	return func(yield func(*Street, *Delivery) bool) {
		for street, delivery := range r.Deliveries() {
			if delivery.HasCoordinates() && !yield(street, delivery) {
				return
			}
		}
	}
}

// DeliveryByID looks a delivery up by its positional identifier.
func (r *Route) DeliveryByID(id string) (*Street, *Delivery, bool) {
	streetIdx, deliveryIdx, ok := ParseDeliveryID(id)
	if !ok || streetIdx >= len(r.DeliveryRoute) {
		return nil, nil, false
	}

	street := &r.DeliveryRoute[streetIdx]
	if deliveryIdx >= len(street.Deliveries) {
		return nil, nil, false
	}

	return street, &street.Deliveries[deliveryIdx], true
}

// Total returns the number of deliveries on the route.
func (r *Route) Total() int {
	total := 0
	for _, street := range r.DeliveryRoute {
		total += len(street.Deliveries)
	}

	return total
}

// Clone returns a deep copy of the route.
func (r *Route) Clone() *Route {
	clone := &Route{Metadata: r.Metadata}
	if r.DeliveryRoute == nil {
		return clone
	}

	clone.DeliveryRoute = make([]Street, len(r.DeliveryRoute))
	for si, street := range r.DeliveryRoute {
		clone.DeliveryRoute[si] = Street{Street: street.Street, City: street.City}
		if street.Deliveries == nil {
			continue
		}

		deliveries := make([]Delivery, len(street.Deliveries))
		for di, delivery := range street.Deliveries {
			deliveries[di] = delivery
			if delivery.Lat != nil {
				lat := *delivery.Lat
				deliveries[di].Lat = &lat
			}
			if delivery.Lon != nil {
				lon := *delivery.Lon
				deliveries[di].Lon = &lon
			}
		}
		clone.DeliveryRoute[si].Deliveries = deliveries
	}

	return clone
}
