package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	sqliteCreateTableQuery = `
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	sqlitePutQuery = `
		INSERT INTO %s (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = CURRENT_TIMESTAMP;
	`
	sqliteGetQuery    = `SELECT value FROM %s WHERE key = ?;`
	sqliteGetAllQuery = `SELECT value FROM %s;`
	sqliteDeleteQuery = `DELETE FROM %s WHERE key = ?;`
	sqliteClearQuery  = `DELETE FROM %s;`
)

// SQLiteStore is a Store backed by a local SQLite file, one table per partition.
type SQLiteStore struct {
	db    *sql.DB
	log   *slog.Logger
	ready atomic.Bool
}

// NewSQLiteStore opens (or creates) the database file at path. Init must be called before use.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping sqlite database: %w", ErrStorageUnavailable, err)
	}

	return &SQLiteStore{db: db, log: log}, nil
}

// Init creates the partition tables that do not exist yet. Existing tables and their rows are left untouched.
func (ss *SQLiteStore) Init(ctx context.Context) error {
	for _, partition := range Partitions {
		if _, err := ss.db.ExecContext(ctx, fmt.Sprintf(sqliteCreateTableQuery, partition)); err != nil {
			return fmt.Errorf("failed to create partition %s: %w", partition, err)
		}
	}

	ss.ready.Store(true)
	ss.log.DebugContext(ctx, "SQLite store initialized", "partitions", len(Partitions))

	return nil
}

func (ss *SQLiteStore) table(partition Partition) (string, error) {
	if !ss.ready.Load() {
		return "", ErrStorageUnavailable
	}

	return tableName(partition)
}

// Put upserts record into partition under its own key.
func (ss *SQLiteStore) Put(ctx context.Context, partition Partition, record Record) error {
	table, err := ss.table(partition)
	if err != nil {
		return err
	}

	key, value, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if _, err = ss.db.ExecContext(ctx, fmt.Sprintf(sqlitePutQuery, table), key, string(value)); err != nil {
		return fmt.Errorf("failed to put record into %s: %w", table, err)
	}

	return nil
}

// Get decodes the record stored under key into dst. A miss returns false and no error.
func (ss *SQLiteStore) Get(ctx context.Context, partition Partition, key string, dst any) (bool, error) {
	table, err := ss.table(partition)
	if err != nil {
		return false, err
	}

	var raw string
	err = ss.db.QueryRowContext(ctx, fmt.Sprintf(sqliteGetQuery, table), key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get record from %s: %w", table, err)
	}

	if err = decodeRecord(key, []byte(raw), dst); err != nil {
		return false, err
	}

	return true, nil
}

// GetAll returns every record of partition in no particular order.
func (ss *SQLiteStore) GetAll(ctx context.Context, partition Partition) ([]json.RawMessage, error) {
	table, err := ss.table(partition)
	if err != nil {
		return nil, err
	}

	rows, err := ss.db.QueryContext(ctx, fmt.Sprintf(sqliteGetAllQuery, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query records from %s: %w", table, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var raw string
		if errScan := rows.Scan(&raw); errScan != nil {
			return nil, fmt.Errorf("failed to scan record from %s: %w", table, errScan)
		}
		records = append(records, json.RawMessage(raw))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return records, nil
}

// Delete removes the record stored under key. Deleting a missing key is not an error.
func (ss *SQLiteStore) Delete(ctx context.Context, partition Partition, key string) error {
	table, err := ss.table(partition)
	if err != nil {
		return err
	}

	if _, err = ss.db.ExecContext(ctx, fmt.Sprintf(sqliteDeleteQuery, table), key); err != nil {
		return fmt.Errorf("failed to delete record from %s: %w", table, err)
	}

	return nil
}

// Clear wipes every record of partition.
func (ss *SQLiteStore) Clear(ctx context.Context, partition Partition) error {
	table, err := ss.table(partition)
	if err != nil {
		return err
	}

	if _, err = ss.db.ExecContext(ctx, fmt.Sprintf(sqliteClearQuery, table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	return nil
}

// Ping checks that the database file is usable.
func (ss *SQLiteStore) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the database.
func (ss *SQLiteStore) Close() {
	if err := ss.db.Close(); err != nil {
		ss.log.Error("Failed to close sqlite database", "error", err)
	}
}
