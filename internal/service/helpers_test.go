package service_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/paperroute/internal/metrics"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const sampleRoute = `{
	"metadata": {"distribution_date": "2025-01-11", "route_code": "HRL-042", "area": "Haarlem Noord"},
	"delivery_route": [
		{"street": "Kleverlaan", "city": "Haarlem", "deliveries": [
			{"house_number": "12", "newspaper": "HD"},
			{"house_number": "0-1", "newspaper": "HD", "name": "Jansen"}
		]},
		{"street": "Rijksstraatweg", "city": "Haarlem", "deliveries": [
			{"house_number": "101", "newspaper": "NRC"}
		]}
	]
}`

// seedTime is the write time of snapshots seeded by tests.
var seedTime = time.UnixMilli(1736553600000)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

// newStore opens an initialized SQLite store in a temporary directory.
func newStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	dir := filet.TmpDir(t, "")
	t.Cleanup(func() { filet.CleanUp(t) })

	store, err := repository.NewSQLiteStore(filepath.Join(dir, "paperroute.db"), newLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Init(t.Context()))

	return store
}
