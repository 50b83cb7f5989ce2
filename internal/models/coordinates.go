package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point.
	Longitude float64 `json:"lon"` // Longitude of the geographical point.
}

// GeocodeEntry is a persisted geocode cache record keyed by the address identity.
type GeocodeEntry struct {
	Key   string      `json:"key"`
	Value Coordinates `json:"value"`
}

// RecordKey returns the address identity the entry is stored under.
func (e GeocodeEntry) RecordKey() string {
	return e.Key
}
