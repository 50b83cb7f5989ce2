package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/paperroute/internal/geocoding"
	"github.com/UnknownOlympus/paperroute/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGoogleProvider_Geocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, "nl", slog.Default())
	ctx := t.Context()

	t.Run("api returns error", func(t *testing.T) {
		query := "1 Onbekendstraat, Haarlem, Netherlands"
		req := &maps.GeocodingRequest{Address: query, Region: "nl"}

		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Geocode(ctx, query)

		require.ErrorIs(t, err, assert.AnError)
		require.NotErrorIs(t, err, geocoding.ErrNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("api return empty response", func(t *testing.T) {
		query := "1 Onbekendstraat, Haarlem, Netherlands"
		req := &maps.GeocodingRequest{Address: query, Region: "nl"}

		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		coords, err := provider.Geocode(ctx, query)

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("successful geocoding", func(t *testing.T) {
		query := "12 Kleverlaan, Haarlem, Netherlands"
		req := &maps.GeocodingRequest{Address: query, Region: "nl"}
		mockResponse := []maps.GeocodingResult{
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 52.39, Lng: 4.64}}},
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 51.0, Lng: 3.0}}},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		coords, err := provider.Geocode(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, coords)
		require.InEpsilon(t, 52.39, coords.Latitude, 0.01)
		require.InEpsilon(t, 4.64, coords.Longitude, 0.01)
		mockClient.AssertExpectations(t)
	})
}
