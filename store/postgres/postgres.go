package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for a database connection pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCache implements design.Cache using PostgreSQL.
type PostgresCache struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for the Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "designs"
}

// NewPostgresCache creates a Postgres-backed design cache.
func NewPostgresCache(ctx context.Context, opts PostgresOptions) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "designs"
	}

	return &PostgresCache{pool: pool, tableName: tableName}, nil
}

// NewPostgresCacheWithPool creates a cache over an existing pool.
// Useful for testing with mocks.
func NewPostgresCacheWithPool(pool DBPool, tableName string) *PostgresCache {
	if tableName == "" {
		tableName = "designs"
	}
	return &PostgresCache{pool: pool, tableName: tableName}
}

// InitSchema creates the cache table if it doesn't exist.
func (c *PostgresCache) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, c.tableName)

	if _, err := c.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *PostgresCache) Close() {
	c.pool.Close()
}

// Get returns the cached value for key.
func (c *PostgresCache) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", c.tableName)

	var value string
	err := c.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load design: %w", err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *PostgresCache) Put(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, c.tableName)

	if _, err := c.pool.Exec(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save design: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *PostgresCache) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", c.tableName)
	if _, err := c.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	return nil
}
