package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
	"github.com/UnknownOlympus/paperroute/internal/service"
	"github.com/UnknownOlympus/paperroute/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCompletionTracker_Toggle(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)
	tracker := service.NewCompletionTracker(newLogger(), store, newMetrics())
	tracker.Load(ctx)

	done, err := tracker.Toggle(ctx, "0-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, tracker.IsCompleted("0-1"))

	var record models.ProgressRecord
	found, err := store.Get(ctx, repository.PartitionProgress, "0-1", &record)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ProgressRecord{ID: "0-1", Completed: true}, record)

	done, err = tracker.Toggle(ctx, "0-1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, tracker.IsCompleted("0-1"))

	found, err = store.Get(ctx, repository.PartitionProgress, "0-1", &record)
	require.NoError(t, err)
	assert.False(t, found, "un-completing must delete the record")

	_, err = tracker.Toggle(ctx, "")
	require.Error(t, err)
}

func TestCompletionTracker_Load(t *testing.T) {
	ctx := t.Context()

	t.Run("survives a restart", func(t *testing.T) {
		store := newStore(t)
		first := service.NewCompletionTracker(newLogger(), store, newMetrics())
		first.Load(ctx)
		for _, id := range []string{"1-0", "0-0"} {
			_, err := first.Toggle(ctx, id)
			require.NoError(t, err)
		}

		second := service.NewCompletionTracker(newLogger(), store, newMetrics())
		completed := second.Load(ctx)

		assert.Len(t, completed, 2)
		assert.Equal(t, []string{"0-0", "1-0"}, second.Completed())
	})

	t.Run("store failure yields an empty set", func(t *testing.T) {
		store := mocks.NewStore(t)
		store.On("GetAll", mock.Anything, repository.PartitionProgress).Return(nil, repository.ErrStorageUnavailable).Once()

		tracker := service.NewCompletionTracker(newLogger(), store, newMetrics())

		assert.Empty(t, tracker.Load(ctx))
		assert.Empty(t, tracker.Completed())
	})
}

// slowFirstPut delays the first Put so a competing write can overtake it.
type slowFirstPut struct {
	repository.Store

	delay time.Duration
	once  sync.Once
}

func (s *slowFirstPut) Put(ctx context.Context, partition repository.Partition, record repository.Record) error {
	s.once.Do(func() { time.Sleep(s.delay) })
	return s.Store.Put(ctx, partition, record)
}

func TestCompletionTracker_ConcurrentToggle(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)
	tracker := service.NewCompletionTracker(newLogger(), &slowFirstPut{Store: store, delay: 100 * time.Millisecond}, newMetrics())
	tracker.Load(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := tracker.Toggle(ctx, "0-1")
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, err := tracker.Toggle(ctx, "0-1")
		assert.NoError(t, err)
	}()
	wg.Wait()

	var record models.ProgressRecord
	found, err := store.Get(ctx, repository.PartitionProgress, "0-1", &record)
	require.NoError(t, err)
	assert.Equal(t, tracker.IsCompleted("0-1"), found, "stored progress must match memory")

	restarted := service.NewCompletionTracker(newLogger(), store, newMetrics())
	restarted.Load(ctx)
	assert.Equal(t, tracker.Completed(), restarted.Completed())
}

func TestCompletionTracker_ToggleStoreFailure(t *testing.T) {
	ctx := t.Context()
	store := mocks.NewStore(t)
	store.On("Put", mock.Anything, repository.PartitionProgress, models.ProgressRecord{ID: "0-0", Completed: true}).
		Return(repository.ErrStorageUnavailable).Once()

	tracker := service.NewCompletionTracker(newLogger(), store, newMetrics())

	done, err := tracker.Toggle(ctx, "0-0")

	require.ErrorIs(t, err, repository.ErrStorageUnavailable)
	assert.True(t, done)
	assert.True(t, tracker.IsCompleted("0-0"))
}

func TestCompletionTracker_Reset(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	entry := models.GeocodeEntry{Key: "KLEVERLAAN|12|HAARLEM", Value: models.Coordinates{Latitude: 52.39, Longitude: 4.64}}
	require.NoError(t, store.Put(ctx, repository.PartitionGeocache, entry))
	seed, err := models.DecodeRoute([]byte(sampleRoute))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, repository.PartitionRoutes, models.NewRouteSnapshot(*seed, seedTime)))

	tracker := service.NewCompletionTracker(newLogger(), store, newMetrics())
	tracker.Load(ctx)
	for _, id := range []string{"0-0", "0-1", "1-0"} {
		_, err = tracker.Toggle(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, tracker.Reset(ctx))

	assert.Empty(t, tracker.Completed())
	progress, err := store.GetAll(ctx, repository.PartitionProgress)
	require.NoError(t, err)
	assert.Empty(t, progress)

	geocache, err := store.GetAll(ctx, repository.PartitionGeocache)
	require.NoError(t, err)
	assert.Len(t, geocache, 1)
	_, found := readSnapshot(t, store)
	assert.True(t, found)
}

func TestCompletionTracker_Stats(t *testing.T) {
	ctx := t.Context()
	route, err := models.DecodeRoute([]byte(sampleRoute))
	require.NoError(t, err)
	route.AssignIDs()

	tracker := service.NewCompletionTracker(newLogger(), newStore(t), newMetrics())
	tracker.Load(ctx)
	for _, id := range []string{"0-1", "9-9"} {
		_, err = tracker.Toggle(ctx, id)
		require.NoError(t, err)
	}

	stats := tracker.Stats(route)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Remaining)
	assert.InDelta(t, 33.33, stats.Percentage, 0.01)
}
