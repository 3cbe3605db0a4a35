package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"warbler/internal/logging"
)

// Store is the durable expiring key/value cache backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	logger *slog.Logger

	now func() time.Time
}

// Open initializes or connects to the cache database in dir and applies the
// schema. defaultTTL governs entries stored without an explicit expiry.
func Open(dir string, defaultTTL time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "api_cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		ttl:    defaultTTL,
		logger: logging.NewComponentLogger(logger, "cache"),
		now:    time.Now,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Debug("cache database ready", logging.String(logging.FieldPath, dbPath))
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached payload for key. An entry past its expiry behaves as
// a miss and is deleted before returning.
func (s *Store) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var data string
	var expiresAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM api_cache WHERE key = ?", key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("cache miss", logging.String("key", key))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	expiry, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		// Unreadable expiry: treat the row as corrupt and drop it.
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	if s.now().After(expiry) {
		s.logger.Debug("cache expired", logging.String("key", key))
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	s.logger.Debug("cache hit", logging.String("key", key))
	return json.RawMessage(data), true, nil
}

// Set stores a JSON-serializable payload under key. A non-positive ttl falls
// back to the store's default.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_cache (key, data, created_at, expires_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET data = excluded.data,
             created_at = excluded.created_at, expires_at = excluded.expires_at`,
		key, string(data), now.Format(time.RFC3339Nano), expiresAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	s.logger.Debug("cached",
		logging.String("key", key),
		logging.String("expires_at", expiresAt.Format(time.RFC3339)))
	return nil
}

// Delete removes a cache entry by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM api_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// CleanupExpired bulk-deletes every entry whose expiry has passed and reports
// how many rows were removed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM api_cache WHERE expires_at < ?",
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired entries: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count removed entries: %w", err)
	}
	if removed > 0 {
		s.logger.Info("cleaned up expired cache entries", logging.Int64(logging.FieldCount, removed))
	}
	return removed, nil
}

// ClearAll removes every cache entry.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM api_cache"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info("cleared all cache entries")
	return nil
}

// Count returns the number of entries currently stored, expired or not.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM api_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}
