package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Partition names one of the logical collections of the store.
type Partition string

const (
	// PartitionProgress holds one record per completed delivery, keyed by delivery id.
	PartitionProgress Partition = "progress"
	// PartitionGeocache holds resolved coordinates, keyed by the upper-cased address.
	PartitionGeocache Partition = "geocache"
	// PartitionRoutes holds the route snapshot under a singleton key.
	PartitionRoutes Partition = "routes"
)

// Partitions lists every partition created on initialization.
var Partitions = []Partition{PartitionProgress, PartitionGeocache, PartitionRoutes}

var (
	// ErrStorageUnavailable is returned when the store is used before Init completed
	// or the underlying storage is not usable.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnknownPartition is returned for partitions outside of Partitions.
	ErrUnknownPartition = errors.New("unknown partition")
)

// Record is a value that carries its own key.
type Record interface {
	RecordKey() string
}

// Store is a durable key/value store with independent partitions.
// Every operation issued before Init returns ErrStorageUnavailable; nothing is queued.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, partition Partition, record Record) error
	Get(ctx context.Context, partition Partition, key string, dst any) (bool, error)
	GetAll(ctx context.Context, partition Partition) ([]json.RawMessage, error)
	Delete(ctx context.Context, partition Partition, key string) error
	Clear(ctx context.Context, partition Partition) error
	Ping(ctx context.Context) error
	Close()
}

// tableName maps a partition onto its table. Only known partitions are ever
// interpolated into SQL.
func tableName(partition Partition) (string, error) {
	switch partition {
	case PartitionProgress, PartitionGeocache, PartitionRoutes:
		return string(partition), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPartition, partition)
	}
}

func encodeRecord(record Record) (string, []byte, error) {
	key := record.RecordKey()
	if key == "" {
		return "", nil, errors.New("record key is empty")
	}

	value, err := json.Marshal(record)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode record %q: %w", key, err)
	}

	return key, value, nil
}

func decodeRecord(key string, raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode record %q: %w", key, err)
	}

	return nil
}

// DecodeAll unmarshals every raw record into a T, skipping records that do not decode.
// The number of skipped records is returned alongside.
func DecodeAll[T any](raw []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var value T
		if err := json.Unmarshal(item, &value); err != nil {
			skipped++
			continue
		}
		out = append(out, value)
	}

	return out, skipped
}
