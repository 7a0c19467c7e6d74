package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS predictions (
	key                TEXT PRIMARY KEY,
	payload            BYTEA NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	expires_at         TIMESTAMPTZ NOT NULL,
	model_version      TEXT NOT NULL,
	feature_version    TEXT NOT NULL,
	calibrator_version TEXT NOT NULL,
	inputs_hash        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_expires ON predictions (expires_at);
`

// PostgresStore is the shared cache backend for multi-instance
// deployments. Same read/write semantics as the SQLite store.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
	now    func() time.Time
}

// NewPostgresStore connects to the cache database and ensures the schema
func NewPostgresStore(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply cache schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger, now: time.Now}, nil
}

// Get reads an entry, deleting expired and corrupt rows on the way
func (s *PostgresStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT key, payload, created_at, expires_at,
		       model_version, feature_version, calibrator_version, inputs_hash
		FROM predictions WHERE key = $1`, key)

	var entry models.CacheEntry
	err := row.Scan(&entry.Key, &entry.Payload, &entry.CreatedAt, &entry.ExpiresAt,
		&entry.ModelVersion, &entry.FeatureVersion, &entry.CalibratorVersion, &entry.InputsHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

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

// Put upserts an entry; the newest write wins on key collision
func (s *PostgresStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO predictions (key, payload, created_at, expires_at,
			model_version, feature_version, calibrator_version, inputs_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			model_version = EXCLUDED.model_version,
			feature_version = EXCLUDED.feature_version,
			calibrator_version = EXCLUDED.calibrator_version,
			inputs_hash = EXCLUDED.inputs_hash`,
		entry.Key, entry.Payload, entry.CreatedAt, entry.ExpiresAt,
		entry.ModelVersion, entry.FeatureVersion, entry.CalibratorVersion, entry.InputsHash)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry by key
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM predictions WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Sweep removes every expired row
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM predictions WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping verifies connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) deleteQuietly(ctx context.Context, key, reason string) {
	metrics.RecordCacheOperation("delete", reason)
	if _, err := s.pool.Exec(ctx, `DELETE FROM predictions WHERE key = $1`, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to delete cache row")
	}
}
