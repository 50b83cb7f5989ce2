package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// UnavailableStore stands in for a store that could not be opened. Every
// operation fails with ErrStorageUnavailable, so callers fall back to empty
// state and unpersisted writes.
type UnavailableStore struct {
	Cause error
}

func (us UnavailableStore) err() error {
	if us.Cause == nil {
		return ErrStorageUnavailable
	}

	return fmt.Errorf("%w: %w", ErrStorageUnavailable, us.Cause)
}

func (us UnavailableStore) Init(context.Context) error { return us.err() }

func (us UnavailableStore) Put(context.Context, Partition, Record) error { return us.err() }

func (us UnavailableStore) Get(context.Context, Partition, string, any) (bool, error) {
	return false, us.err()
}

func (us UnavailableStore) GetAll(context.Context, Partition) ([]json.RawMessage, error) {
	return nil, us.err()
}

func (us UnavailableStore) Delete(context.Context, Partition, string) error { return us.err() }

func (us UnavailableStore) Clear(context.Context, Partition) error { return us.err() }

func (us UnavailableStore) Ping(context.Context) error { return us.err() }

func (us UnavailableStore) Close() {}
