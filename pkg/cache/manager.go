package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when no live entry exists for a key.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned when a stored value cannot be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL applies when NewManager is given a non-positive TTL.
const DefaultTTL = 6 * time.Hour

// purgeBatch is the SCAN page size and the number of keys unlinked per call.
const purgeBatch = 500

// Manager stores upstream responses in Redis under KeyPrefix.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewManager creates a manager. It panics on a nil client.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{redis: redisClient, ttl: ttl}
}

// TTL returns the lifetime given to new entries.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the live entry for key, or ErrCacheMiss. An entry found past
// its Expires time is removed and reported as a miss.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, ErrCacheMiss
	case err != nil:
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	entry := new(CacheEntry)
	if err := json.Unmarshal(raw, entry); err != nil {
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, key, err)
	}

	if entry.IsExpired() {
		cacheLookups.WithLabelValues("expired").Inc()
		_ = m.Delete(ctx, key)
		return nil, ErrCacheMiss
	}

	cacheLookups.WithLabelValues("hit").Inc()
	return entry, nil
}

// Set stores entry under key with a Redis expiry matching entry.Expires.
// Entries that are already stale are skipped.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}
	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	cacheBytesWritten.Add(float64(len(raw)))
	return nil
}

// Delete removes the entry for key.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		cacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Purge removes every entry under KeyPrefix and returns how many were removed.
// Keys outside the prefix are left alone.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	iter := m.redis.Scan(ctx, 0, KeyPrefix+":*", purgeBatch).Iterator()

	removed := 0
	pending := make([]string, 0, purgeBatch)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := m.redis.Unlink(ctx, pending...).Result()
		if err != nil {
			cacheErrors.WithLabelValues("purge").Inc()
			return fmt.Errorf("redis unlink: %w", err)
		}
		removed += int(n)
		pending = pending[:0]
		return nil
	}

	for iter.Next(ctx) {
		pending = append(pending, iter.Val())
		if len(pending) == purgeBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		cacheErrors.WithLabelValues("purge").Inc()
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
