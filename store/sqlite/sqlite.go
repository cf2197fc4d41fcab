package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteCache implements design.Cache using a SQLite database.
type SqliteCache struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for the SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "designs"
}

// NewSqliteCache opens (creating if needed) the database at opts.Path and
// ensures the cache table exists.
func NewSqliteCache(opts SqliteOptions) (*SqliteCache, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "designs"
	}

	cache := &SqliteCache{db: db, tableName: tableName}
	if err := cache.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

// InitSchema creates the cache table if it doesn't exist.
func (c *SqliteCache) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SqliteCache) Close() error {
	return c.db.Close()
}

// Get returns the cached value for key.
func (c *SqliteCache) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", c.tableName)

	var value string
	err := c.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load design: %w", err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *SqliteCache) Put(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save design: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (c *SqliteCache) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", c.tableName)
	if _, err := c.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	return nil
}
