package models_test

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
	"metadata": {"distribution_date": "2025-10-09", "route_code": "R1", "area": "HAARLEM NOORD"},
	"delivery_route": [
		{"street": "Kleverlaan", "city": "Haarlem", "deliveries": [
			{"house_number": "12", "newspaper": "HD"},
			{"house_number": "14a", "newspaper": "TEL", "name": "Jansen", "lat": 52.39, "lon": 4.64}
		]},
		{"street": "Rijksstraatweg", "city": "Haarlem", "deliveries": [
			{"house_number": "1", "newspaper": "NRC"}
		]}
	]
}`

func TestAddress(t *testing.T) {
	addr := models.Address{Street: "Kleverlaan", HouseNumber: "14a", City: "Haarlem"}

	t.Run("key is upper-cased identity", func(t *testing.T) {
		assert.Equal(t, "KLEVERLAAN|14A|HAARLEM", addr.Key())
	})

	t.Run("key ignores case", func(t *testing.T) {
		other := models.Address{Street: "KLEVERLAAN", HouseNumber: "14A", City: "haarlem"}
		assert.Equal(t, addr.Key(), other.Key())
	})

	t.Run("query with default country", func(t *testing.T) {
		assert.Equal(t, "14a Kleverlaan, Haarlem, Netherlands", addr.Query(""))
	})

	t.Run("query with custom country", func(t *testing.T) {
		assert.Equal(t, "14a Kleverlaan, Haarlem, Belgium", addr.Query("Belgium"))
	})
}

func TestDecodeRoute(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		route, err := models.DecodeRoute([]byte(sampleDocument))

		require.NoError(t, err)
		assert.Equal(t, "R1", route.Metadata.RouteCode)
		assert.Equal(t, "HAARLEM NOORD", route.Metadata.Area)
		require.Len(t, route.DeliveryRoute, 2)
		assert.Equal(t, 3, route.Total())

		first := route.DeliveryRoute[0].Deliveries[0]
		assert.False(t, first.HasCoordinates())
		assert.Nil(t, first.Coordinates())

		second := route.DeliveryRoute[0].Deliveries[1]
		require.True(t, second.HasCoordinates())
		assert.InEpsilon(t, 52.39, second.Coordinates().Latitude, 0.0001)
		assert.Equal(t, "Jansen", second.Name)
	})

	t.Run("invalid json", func(t *testing.T) {
		route, err := models.DecodeRoute([]byte(`{"metadata":`))

		require.Nil(t, route)
		require.ErrorIs(t, err, models.ErrMalformedRoute)
	})

	t.Run("missing delivery route", func(t *testing.T) {
		route, err := models.DecodeRoute([]byte(`{"metadata":{"route_code":"R1"}}`))

		require.Nil(t, route)
		require.ErrorIs(t, err, models.ErrMalformedRoute)
		assert.Contains(t, err.Error(), "missing delivery_route")
	})

	t.Run("empty delivery route is valid", func(t *testing.T) {
		route, err := models.DecodeRoute([]byte(`{"delivery_route":[]}`))

		require.NoError(t, err)
		assert.Equal(t, 0, route.Total())
	})
}

func TestRouteIdentifiers(t *testing.T) {
	route, err := models.DecodeRoute([]byte(sampleDocument))
	require.NoError(t, err)
	route.AssignIDs()

	var ids []string
	for street, delivery := range route.Deliveries() {
		ids = append(ids, delivery.ID+"@"+street.Street)
	}
	assert.Equal(t, []string{"0-0@Kleverlaan", "0-1@Kleverlaan", "1-0@Rijksstraatweg"}, ids)

	t.Run("lookup by id", func(t *testing.T) {
		street, delivery, ok := route.DeliveryByID("0-1")

		require.True(t, ok)
		assert.Equal(t, "Kleverlaan", street.Street)
		assert.Equal(t, "TEL", delivery.Newspaper)
		assert.Equal(t, "KLEVERLAAN|14A|HAARLEM", street.Address(delivery).Key())
	})

	for _, id := range []string{"", "0", "a-b", "0-x", "-1-0", "2-0", "0-2", "1--1"} {
		t.Run("unknown id "+id, func(t *testing.T) {
			_, _, ok := route.DeliveryByID(id)
			assert.False(t, ok)
		})
	}
}

func TestRouteLocated(t *testing.T) {
	route, err := models.DecodeRoute([]byte(sampleDocument))
	require.NoError(t, err)
	route.AssignIDs()

	var ids []string
	for _, delivery := range route.Located() {
		ids = append(ids, delivery.ID)
	}

	assert.Equal(t, []string{"0-1"}, ids)
}

func TestRouteClone(t *testing.T) {
	route, err := models.DecodeRoute([]byte(sampleDocument))
	require.NoError(t, err)

	clone := route.Clone()
	require.Equal(t, route, clone)

	clone.DeliveryRoute[0].Deliveries[0].SetCoordinates(models.Coordinates{Latitude: 1, Longitude: 2})
	*clone.DeliveryRoute[0].Deliveries[1].Lat = 0

	assert.False(t, route.DeliveryRoute[0].Deliveries[0].HasCoordinates())
	assert.InEpsilon(t, 52.39, *route.DeliveryRoute[0].Deliveries[1].Lat, 0.0001)
}

func TestRouteSnapshot(t *testing.T) {
	now := time.UnixMilli(1760000000000)
	snapshot := models.NewRouteSnapshot(models.Route{Metadata: models.RouteMetadata{RouteCode: "R1"}}, now)

	assert.Equal(t, models.SnapshotID, snapshot.RecordKey())
	assert.Equal(t, int64(1760000000000), snapshot.Timestamp)
	assert.Equal(t, "R1", snapshot.Data.Metadata.RouteCode)
}

func TestNewStats(t *testing.T) {
	route, err := models.DecodeRoute([]byte(sampleDocument))
	require.NoError(t, err)
	route.AssignIDs()

	done := map[string]bool{"0-0": true, "9-9": true}
	stats := models.NewStats(route, func(id string) bool { return done[id] })

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Remaining)
	assert.InDelta(t, 33.33, stats.Percentage, 0.01)
	assert.Equal(t, models.Stats{}, models.NewStats(nil, func(string) bool { return true }))
}
