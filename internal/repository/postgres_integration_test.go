//go:build integration

package repository_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx := t.Context()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("paperroute"),
		postgres.WithUsername("paperroute"),
		postgres.WithPassword("paperroute"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	store := repository.NewPostgresStore(pool, slog.Default())
	defer store.Close()

	require.NoError(t, store.Init(ctx))
	// A second initialization is a no-op on existing partitions.
	require.NoError(t, store.Init(ctx))

	entry := models.GeocodeEntry{Key: "KLEVERLAAN|12|HAARLEM", Value: models.Coordinates{Latitude: 52.39, Longitude: 4.64}}
	require.NoError(t, store.Put(ctx, repository.PartitionGeocache, entry))
	require.NoError(t, store.Put(ctx, repository.PartitionGeocache, entry))

	var got models.GeocodeEntry
	found, err := store.Get(ctx, repository.PartitionGeocache, entry.Key, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry, got)

	for _, id := range []string{"0-0", "0-1"} {
		require.NoError(t, store.Put(ctx, repository.PartitionProgress, models.ProgressRecord{ID: id, Completed: true}))
	}
	require.NoError(t, store.Delete(ctx, repository.PartitionProgress, "0-0"))

	progress, err := store.GetAll(ctx, repository.PartitionProgress)
	require.NoError(t, err)
	assert.Len(t, progress, 1)

	require.NoError(t, store.Clear(ctx, repository.PartitionProgress))
	progress, err = store.GetAll(ctx, repository.PartitionProgress)
	require.NoError(t, err)
	assert.Empty(t, progress)

	geocache, err := store.GetAll(ctx, repository.PartitionGeocache)
	require.NoError(t, err)
	assert.Len(t, geocache, 1)
}
