package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	key                TEXT PRIMARY KEY,
	payload            BLOB NOT NULL,
	created_at         INTEGER NOT NULL,
	expires_at         INTEGER NOT NULL,
	model_version      TEXT NOT NULL,
	feature_version    TEXT NOT NULL,
	calibrator_version TEXT NOT NULL,
	inputs_hash        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_expires ON predictions (expires_at);
`

// SQLiteStore persists cache entries in a local SQLite file opened in
// WAL mode. Concurrent writers queue behind the busy timeout; the
// newest write wins on key collision.
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (and if needed creates) the cache database
func NewSQLiteStore(path string, busyTimeout time.Duration, logger *logrus.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply cache schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Get reads an entry. Expired rows are deleted and reported as a miss;
// rows whose payload no longer parses are treated the same way.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, payload, created_at, expires_at,
		       model_version, feature_version, calibrator_version, inputs_hash
		FROM predictions WHERE key = ?`, key)

	var entry models.CacheEntry
	var created, expires int64
	err := row.Scan(&entry.Key, &entry.Payload, &created, &expires,
		&entry.ModelVersion, &entry.FeatureVersion, &entry.CalibratorVersion, &entry.InputsHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.CreatedAt = time.Unix(created, 0).UTC()
	entry.ExpiresAt = time.Unix(expires, 0).UTC()

	if entry.Expired(s.now()) {
		s.deleteQuietly(ctx, key, "expired")
		return nil, nil
	}
	if !json.Valid(entry.Payload) {
		s.deleteQuietly(ctx, key, "corrupt")
		return nil, nil
	}
	return &entry, nil
}

// Put upserts an entry, replacing any existing row for the same key
func (s *SQLiteStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (key, payload, created_at, expires_at,
			model_version, feature_version, calibrator_version, inputs_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			model_version = excluded.model_version,
			feature_version = excluded.feature_version,
			calibrator_version = excluded.calibrator_version,
			inputs_hash = excluded.inputs_hash`,
		entry.Key, entry.Payload, entry.CreatedAt.Unix(), entry.ExpiresAt.Unix(),
		entry.ModelVersion, entry.FeatureVersion, entry.CalibratorVersion, entry.InputsHash)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry by key
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM predictions WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Sweep removes every expired row. Run by the maintenance scheduler.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM predictions WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Ping verifies the database file is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) deleteQuietly(ctx context.Context, key, reason string) {
	metrics.RecordCacheOperation("delete", reason)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM predictions WHERE key = ?`, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to delete cache row")
	}
}
