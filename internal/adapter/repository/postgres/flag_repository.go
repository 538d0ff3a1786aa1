package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
)

type flagCacheEntry struct {
	flag      domain.FeatureFlag
	found     bool
	expiresAt time.Time
}

// FlagRepository implements domain.FlagRepository using PostgreSQL as the
// source of truth and an in-memory, time-based cache for reads. Unknown keys
// are cached too, so a hot path asking for a missing flag does not hammer
// the database.
type FlagRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[string]flagCacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
	metrics  *metrics.Metrics
}

// NewFlagRepository creates a new instance of the PostgreSQL flag repository.
func NewFlagRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.Metrics) *FlagRepository {
	return &FlagRepository{
		db:       db,
		logger:   logger,
		cache:    make(map[string]flagCacheEntry),
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// Get returns a flag by key. It first checks the local cache and falls back
// to the database when the key is absent or the cache entry has expired.
func (r *FlagRepository) Get(ctx context.Context, key string) (domain.FeatureFlag, error) {
	r.mu.RLock()
	entry, found := r.cache[key]
	r.mu.RUnlock()

	if found && time.Now().Before(entry.expiresAt) {
		if r.metrics != nil {
			r.metrics.FlagCacheHits.Inc()
		}
		return entry.result()
	}

	if r.metrics != nil {
		r.metrics.FlagCacheMiss.Inc()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check in case another goroutine refreshed the key while we
	// waited for the write lock.
	entry, found = r.cache[key]
	if found && time.Now().Before(entry.expiresAt) {
		return entry.result()
	}

	var f domain.FeatureFlag
	query := `SELECT key, enabled, description, updated_at FROM feature_flags WHERE key = $1`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&f.Key, &f.Enabled, &f.Description, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		r.cache[key] = flagCacheEntry{expiresAt: time.Now().Add(r.cacheTTL)}
		return domain.FeatureFlag{}, domain.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load feature flag", "error", err, "key", key)
		// Don't cache errors, let the next request retry from the DB
		return domain.FeatureFlag{}, fmt.Errorf("get flag: %w", err)
	}

	r.cache[key] = flagCacheEntry{
		flag:      f,
		found:     true,
		expiresAt: time.Now().Add(r.cacheTTL),
	}

	return f, nil
}

func (e flagCacheEntry) result() (domain.FeatureFlag, error) {
	if !e.found {
		return domain.FeatureFlag{}, domain.ErrNotFound
	}
	return e.flag, nil
}

// Upsert inserts or replaces a flag and drops it from the cache so the next
// read observes the new value.
func (r *FlagRepository) Upsert(ctx context.Context, flag domain.FeatureFlag) error {
	query := `
		INSERT INTO feature_flags (key, enabled, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET enabled = EXCLUDED.enabled,
		    description = EXCLUDED.description,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, flag.Key, flag.Enabled, flag.Description, flag.UpdatedAt); err != nil {
		return fmt.Errorf("upsert flag: %w", err)
	}

	r.mu.Lock()
	delete(r.cache, flag.Key)
	r.mu.Unlock()

	return nil
}

// List returns all flags straight from the database, bypassing the cache.
func (r *FlagRepository) List(ctx context.Context) ([]domain.FeatureFlag, error) {
	query := `SELECT key, enabled, description, updated_at FROM feature_flags ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var flags []domain.FeatureFlag
	for rows.Next() {
		var f domain.FeatureFlag
		if err := rows.Scan(&f.Key, &f.Enabled, &f.Description, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}
