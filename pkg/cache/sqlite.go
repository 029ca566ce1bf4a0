package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteOption configures a SQLiteCache.
type SQLiteOption func(*sqliteConfig)

type sqliteConfig struct {
	table       string
	busyTimeout time.Duration
}

// WithSQLiteTable stores entries in table instead of kv_store.
func WithSQLiteTable(table string) SQLiteOption {
	return func(c *sqliteConfig) { c.table = table }
}

// SQLiteCache implements Service on a single SQLite table. It is the local
// persistent store: entries survive process restarts.
type SQLiteCache struct {
	db    *sql.DB
	table string
}

// NewSQLiteCache opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway store.
func NewSQLiteCache(path string, opts ...SQLiteOption) (*SQLiteCache, error) {
	cfg := &sqliteConfig{
		table:       "kv_store",
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if !tableNamePattern.MatchString(cfg.table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.table)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER,
			updated_at INTEGER NOT NULL
		)
	`, cfg.table))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteCache{db: db, table: cfg.table}, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	var expiresAt sql.NullInt64
	if expiration > 0 {
		expiresAt = sql.NullInt64{Int64: time.Now().Add(expiration).UnixNano(), Valid: true}
	}

	_, err = c.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, c.table), key, data, expiresAt, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store %q: %w", key, err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	var expiresAt sql.NullInt64
	err := c.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT value, expires_at FROM %s WHERE key = ?", c.table), key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", key, err)
	}

	if expiresAt.Valid && time.Now().UnixNano() > expiresAt.Int64 {
		_ = c.Delete(ctx, key)
		return ErrCacheMiss
	}
	return decode(data, dest)
}

func (c *SQLiteCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := c.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE key IN (%s)", c.table, placeholders), args...)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	now := time.Now().UnixNano()
	for _, key := range keys {
		var exists bool
		err := c.db.QueryRowContext(ctx, fmt.Sprintf(
			"SELECT EXISTS(SELECT 1 FROM %s WHERE key = ? AND (expires_at IS NULL OR expires_at >= ?))", c.table),
			key, now,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("failed to check %q: %w", key, err)
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
