package models

import (
	"fmt"
	"strings"
)

// DefaultCountry is appended to every geocoding query.
const DefaultCountry = "Netherlands"

// Address is a single street address on the route.
type Address struct {
	Street      string
	HouseNumber string
	City        string
}

// Key returns the case-insensitive identity of the address. It is the key of
// the geocode cache.
func (a Address) Key() string {
	return strings.ToUpper(a.Street + "|" + a.HouseNumber + "|" + a.City)
}

// Query builds the free-text search query sent to the geocoding provider.
// An empty country falls back to DefaultCountry.
func (a Address) Query(country string) string {
	if country == "" {
		country = DefaultCountry
	}

	return fmt.Sprintf("%s %s, %s, %s", a.HouseNumber, a.Street, a.City, country)
}
