package models

// ProgressRecord marks a single delivery as done.
type ProgressRecord struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// RecordKey returns the delivery identifier the record is stored under.
func (p ProgressRecord) RecordKey() string {
	return p.ID
}

// Stats summarizes route progress.
type Stats struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Remaining  int     `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// NewStats computes progress for route given the completion predicate.
// Completed ids that do not belong to the route are not counted.
func NewStats(route *Route, isCompleted func(id string) bool) Stats {
	var stats Stats
	if route == nil {
		return stats
	}

	for _, delivery := range route.Deliveries() {
		stats.Total++
		if isCompleted(delivery.ID) {
			stats.Completed++
		}
	}

	stats.Remaining = stats.Total - stats.Completed
	if stats.Total > 0 {
		const hundred = 100
		stats.Percentage = float64(stats.Completed) / float64(stats.Total) * hundred
	}

	return stats
}
