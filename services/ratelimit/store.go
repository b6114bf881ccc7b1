package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// PostgresCounterStore implements CounterStore on top of a rate_limit_events
// table. Each Hit is an insert plus a windowed count; the database's own
// atomicity covers concurrent callers.
type PostgresCounterStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresCounterStore creates a new PostgresCounterStore
func NewPostgresCounterStore(db *sql.DB, logger *zap.Logger) *PostgresCounterStore {
	return &PostgresCounterStore{
		db:     db,
		logger: logger,
	}
}

// OpenCounterStore opens a dedicated connection pool to the counter store.
// The URL names the store host and database; the token is the credential,
// kept separate from the URL so it stays out of config files and logs.
func OpenCounterStore(storeURL, storeToken string, logger *zap.Logger) (*PostgresCounterStore, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid counter store URL: %w", err)
	}

	username := "ratelimiter"
	if u.User != nil && u.User.Username() != "" {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, storeToken)

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open counter store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping counter store: %w", err)
	}

	logger.Info("counter store connection established",
		zap.String("host", u.Host))

	store := NewPostgresCounterStore(db, logger)
	if err := store.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// InitSchema creates the counter table when it does not exist yet
func (s *PostgresCounterStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS rate_limit_events (
			id BIGSERIAL PRIMARY KEY,
			scope_key VARCHAR(255) NOT NULL,
			timestamp TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rate_limit_events_scope_time
			ON rate_limit_events(scope_key, timestamp)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize counter store schema: %w", err)
	}
	return nil
}

// Close releases the counter store connection pool
func (s *PostgresCounterStore) Close() error {
	return s.db.Close()
}

// Hit records one event for key and returns the event count and earliest event
// time inside the trailing window, including the event just recorded.
func (s *PostgresCounterStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()

	insert := `
		INSERT INTO rate_limit_events (scope_key, timestamp)
		VALUES ($1, $2)
	`
	if _, err := s.db.ExecContext(ctx, insert, key, now); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to record rate limit event: %w", err)
	}

	query := `
		SELECT COUNT(*), MIN(timestamp)
		FROM rate_limit_events
		WHERE scope_key = $1
		  AND timestamp > $2
	`
	var count int
	var earliest sql.NullTime
	windowStart := now.Add(-window)
	if err := s.db.QueryRowContext(ctx, query, key, windowStart).Scan(&count, &earliest); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to query rate limit window: %w", err)
	}

	if earliest.Valid {
		return count, earliest.Time, nil
	}
	return count, now, nil
}

// CleanupOldEvents removes rate limit events older than the retention period
// to keep the table size manageable. Should be called periodically.
func (s *PostgresCounterStore) CleanupOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old rate limit events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info("cleaned up old rate limit events",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff_time", cutoff))

	return rowsAffected, nil
}

// StartCleanupWorker starts a background worker to periodically clean up old events
func (s *PostgresCounterStore) StartCleanupWorker(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention))

	for {
		select {
		case <-ticker.C:
			if _, err := s.CleanupOldEvents(ctx, retention); err != nil {
				s.logger.Error("failed to cleanup old rate limit events", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
