package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/UnknownOlympus/paperroute/internal/metrics"
	"github.com/UnknownOlympus/paperroute/internal/models"
	"github.com/UnknownOlympus/paperroute/internal/repository"
)

// CompletionTracker keeps the set of delivered ids. Only completed deliveries
// have a progress record; un-completing one deletes it.
type CompletionTracker struct {
	log     *slog.Logger
	store   repository.Store
	metrics *metrics.Metrics

	// writeMu orders each in-memory change together with its store write.
	writeMu sync.Mutex

	mu        sync.RWMutex
	completed map[string]struct{}
}

func NewCompletionTracker(log *slog.Logger, store repository.Store, metrics *metrics.Metrics) *CompletionTracker {
	return &CompletionTracker{
		log:       log,
		store:     store,
		metrics:   metrics,
		completed: make(map[string]struct{}),
	}
}

// Load replaces the in-memory set with the persisted progress and returns a copy of it.
// A store failure yields an empty set.
func (ct *CompletionTracker) Load(ctx context.Context) map[string]struct{} {
	completed := make(map[string]struct{})

	raw, err := ct.store.GetAll(ctx, repository.PartitionProgress)
	if err != nil {
		ct.log.ErrorContext(ctx, "Failed to load progress", "error", err)
	} else {
		records, skipped := repository.DecodeAll[models.ProgressRecord](raw)
		for _, record := range records {
			if record.Completed && record.ID != "" {
				completed[record.ID] = struct{}{}
			}
		}
		if skipped > 0 {
			ct.log.WarnContext(ctx, "Skipped undecodable progress records", "count", skipped)
		}
	}

	ct.mu.Lock()
	ct.completed = completed
	ct.mu.Unlock()

	ct.metrics.CompletedDeliveries.Set(float64(len(completed)))
	ct.log.InfoContext(ctx, "Loaded progress", "completed", len(completed))

	out := make(map[string]struct{}, len(completed))
	for id := range completed {
		out[id] = struct{}{}
	}

	return out
}

// Toggle flips the completion state of id and returns the new state.
// The in-memory flip stands even when persisting it fails.
func (ct *CompletionTracker) Toggle(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.New("delivery id is empty")
	}

	ct.writeMu.Lock()
	defer ct.writeMu.Unlock()

	ct.mu.Lock()
	_, done := ct.completed[id]
	if done {
		delete(ct.completed, id)
	} else {
		ct.completed[id] = struct{}{}
	}
	count := len(ct.completed)
	ct.mu.Unlock()

	ct.metrics.CompletedDeliveries.Set(float64(count))

	var err error
	if done {
		err = ct.store.Delete(ctx, repository.PartitionProgress, id)
	} else {
		err = ct.store.Put(ctx, repository.PartitionProgress, models.ProgressRecord{ID: id, Completed: true})
	}
	if err != nil {
		return !done, fmt.Errorf("failed to save progress for %s: %w", id, err)
	}

	return !done, nil
}

// Reset forgets every completed delivery. The geocode cache and the route snapshot are kept.
func (ct *CompletionTracker) Reset(ctx context.Context) error {
	ct.writeMu.Lock()
	defer ct.writeMu.Unlock()

	ct.mu.Lock()
	ct.completed = make(map[string]struct{})
	ct.mu.Unlock()

	ct.metrics.CompletedDeliveries.Set(0)

	if err := ct.store.Clear(ctx, repository.PartitionProgress); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}

	ct.log.InfoContext(ctx, "Progress reset")

	return nil
}

// IsCompleted reports whether id is marked as delivered.
func (ct *CompletionTracker) IsCompleted(id string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	_, ok := ct.completed[id]
	return ok
}

// Completed returns the completed ids in ascending order.
func (ct *CompletionTracker) Completed() []string {
	ct.mu.RLock()
	ids := make([]string, 0, len(ct.completed))
	for id := range ct.completed {
		ids = append(ids, id)
	}
	ct.mu.RUnlock()

	slices.Sort(ids)

	return ids
}

// Stats computes progress over the deliveries of route.
func (ct *CompletionTracker) Stats(route *models.Route) models.Stats {
	return models.NewStats(route, ct.IsCompleted)
}
