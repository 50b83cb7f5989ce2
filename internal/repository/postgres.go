package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of the pgx pool used by PostgresStore.
// It is satisfied by *pgxpool.Pool and by pgxmock pools.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const (
	pgCreateTableQuery = `
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	pgPutQuery = `
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now();
	`
	pgGetQuery    = `SELECT value FROM %s WHERE key = $1;`
	pgGetAllQuery = `SELECT value FROM %s;`
	pgDeleteQuery = `DELETE FROM %s WHERE key = $1;`
	pgClearQuery  = `DELETE FROM %s;`
)

// PostgresStore is a Store backed by PostgreSQL, one table per partition.
type PostgresStore struct {
	db    Database
	log   *slog.Logger
	ready atomic.Bool
}

// NewDatabase opens a pgx connection pool and verifies it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStore creates a store on top of db. Init must be called before use.
func NewPostgresStore(db Database, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Init creates the partition tables that do not exist yet. Existing tables and their rows are left untouched.
func (ps *PostgresStore) Init(ctx context.Context) error {
	for _, partition := range Partitions {
		if _, err := ps.db.Exec(ctx, fmt.Sprintf(pgCreateTableQuery, partition)); err != nil {
			return fmt.Errorf("failed to create partition %s: %w", partition, err)
		}
	}

	ps.ready.Store(true)
	ps.log.DebugContext(ctx, "Postgres store initialized", "partitions", len(Partitions))

	return nil
}

func (ps *PostgresStore) table(partition Partition) (string, error) {
	if !ps.ready.Load() {
		return "", ErrStorageUnavailable
	}

	return tableName(partition)
}

// Put upserts record into partition under its own key.
func (ps *PostgresStore) Put(ctx context.Context, partition Partition, record Record) error {
	table, err := ps.table(partition)
	if err != nil {
		return err
	}

	key, value, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if _, err = ps.db.Exec(ctx, fmt.Sprintf(pgPutQuery, table), key, value); err != nil {
		return fmt.Errorf("failed to put record into %s: %w", table, err)
	}

	return nil
}

// Get decodes the record stored under key into dst. A miss returns false and no error.
func (ps *PostgresStore) Get(ctx context.Context, partition Partition, key string, dst any) (bool, error) {
	table, err := ps.table(partition)
	if err != nil {
		return false, err
	}

	var raw []byte
	err = ps.db.QueryRow(ctx, fmt.Sprintf(pgGetQuery, table), key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get record from %s: %w", table, err)
	}

	if err = decodeRecord(key, raw, dst); err != nil {
		return false, err
	}

	return true, nil
}

// GetAll returns every record of partition in no particular order.
func (ps *PostgresStore) GetAll(ctx context.Context, partition Partition) ([]json.RawMessage, error) {
	table, err := ps.table(partition)
	if err != nil {
		return nil, err
	}

	rows, err := ps.db.Query(ctx, fmt.Sprintf(pgGetAllQuery, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query records from %s: %w", table, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var raw []byte
		if errScan := rows.Scan(&raw); errScan != nil {
			return nil, fmt.Errorf("failed to scan record from %s: %w", table, errScan)
		}
		records = append(records, append(json.RawMessage(nil), raw...))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return records, nil
}

// Delete removes the record stored under key. Deleting a missing key is not an error.
func (ps *PostgresStore) Delete(ctx context.Context, partition Partition, key string) error {
	table, err := ps.table(partition)
	if err != nil {
		return err
	}

	if _, err = ps.db.Exec(ctx, fmt.Sprintf(pgDeleteQuery, table), key); err != nil {
		return fmt.Errorf("failed to delete record from %s: %w", table, err)
	}

	return nil
}

// Clear wipes every record of partition.
func (ps *PostgresStore) Clear(ctx context.Context, partition Partition) error {
	table, err := ps.table(partition)
	if err != nil {
		return err
	}

	if _, err = ps.db.Exec(ctx, fmt.Sprintf(pgClearQuery, table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.db.Ping(ctx)
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() {
	ps.db.Close()
}
