package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLCache stores content verdicts in a SQLite or MySQL table
type SQLCache struct {
	db          *sql.DB
	upsert      string
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

const (
	sqliteUpsert = `
		INSERT OR REPLACE INTO verdict_cache (sender_email, is_spam, score, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?)`
	mysqlUpsert = `
		INSERT INTO verdict_cache (sender_email, is_spam, score, last_seen, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE is_spam = VALUES(is_spam), score = VALUES(score),
			last_seen = VALUES(last_seen), expires_at = VALUES(expires_at)`
)

// NewSQLiteCache opens (or creates) a SQLite verdict cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS verdict_cache (
			sender_email TEXT PRIMARY KEY,
			is_spam BOOLEAN NOT NULL,
			score REAL NOT NULL,
			last_seen TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_cache_expires_at ON verdict_cache(expires_at)`,
	}
	if err := migrate(db, stmts); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLCache(db, sqliteUpsert, logger, cleanupFreq), nil
}

// NewMySQLCache connects to a MySQL verdict cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS verdict_cache (
			sender_email VARCHAR(255) PRIMARY KEY,
			is_spam BOOLEAN NOT NULL,
			score DOUBLE NOT NULL,
			last_seen VARCHAR(32) NOT NULL,
			expires_at VARCHAR(32) NOT NULL,
			INDEX idx_verdict_cache_expires_at (expires_at)
		)`,
	}
	if err := migrate(db, stmts); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLCache(db, mysqlUpsert, logger, cleanupFreq), nil
}

func migrate(db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create verdict cache table: %w", err)
		}
	}
	return nil
}

func newSQLCache(db *sql.DB, upsert string, logger *zap.Logger, cleanupFreq time.Duration) *SQLCache {
	cache := &SQLCache{
		db:          db,
		upsert:      upsert,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// Get retrieves an unexpired cached entry for a sender
func (c *SQLCache) Get(ctx context.Context, senderEmail string) (*core.CacheEntry, error) {
	var (
		entry               core.CacheEntry
		lastSeen, expiresAt string
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT sender_email, is_spam, score, last_seen, expires_at
		FROM verdict_cache
		WHERE sender_email = ? AND expires_at > ?
	`, senderEmail, c.now().UTC().Format(timeLayout)).
		Scan(&entry.SenderEmail, &entry.IsSpam, &entry.Score, &lastSeen, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if entry.LastSeen, err = time.Parse(timeLayout, lastSeen); err != nil {
		return nil, fmt.Errorf("failed to parse last_seen timestamp: %w", err)
	}
	if entry.ExpiresAt, err = time.Parse(timeLayout, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
	}
	return &entry, nil
}

// Set stores a cache entry
func (c *SQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, c.upsert,
		entry.SenderEmail, entry.IsSpam, entry.Score,
		entry.LastSeen.UTC().Format(timeLayout), entry.ExpiresAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *SQLCache) Delete(ctx context.Context, senderEmail string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM verdict_cache WHERE sender_email = ?`, senderEmail); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM verdict_cache WHERE expires_at <= ?`,
		c.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

func (c *SQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close cache database", zap.Error(err))
		}
	})
}
