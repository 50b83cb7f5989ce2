package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/paperroute/internal/models"
)

// Provider is an interface that defines a method for geocoding a free-text address query.
// The Geocode method returns the coordinates of the best match, ErrNotFound when the
// provider has no match, or another error when the lookup itself failed.
type Provider interface {
	Geocode(ctx context.Context, query string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common provider errors.
var (
	// ErrNotFound is returned when the provider answered successfully with zero results.
	ErrNotFound = errors.New("no geocoding results")
	// ErrInvalidCoords is returned when the provider answered with unparsable coordinates.
	ErrInvalidCoords = errors.New("provider returned invalid coordinates")
)
