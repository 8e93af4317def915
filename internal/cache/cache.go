// Package cache provides the read-through cache shielding outbound API calls.
//
// Two tiers: a primary shared store (Redis) reachable over the network, and a
// process-local fallback store that is always available. A primary outage only
// costs latency and staleness, never a request failure.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Store is one cache tier. Get reports a miss with found=false and reserves
// the error return for tier failures (connection errors, timeouts).
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Service is the two-tier read-through cache. The primary store may be nil,
// in which case the fallback carries everything.
type Service struct {
	primary  Store
	fallback *MemoryStore
	logger   *slog.Logger
}

// Stats describes the current state of both tiers.
type Stats struct {
	PrimaryAvailable bool `json:"primary_available"`
	PrimarySize      int  `json:"primary_size"`
	FallbackSize     int  `json:"fallback_size"`
}

// NewService builds a cache service over an optional primary store.
func NewService(primary Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		primary:  primary,
		fallback: NewMemoryStore(),
		logger:   logger,
	}
}

// Get loads the value stored under key into dest and reports whether a live
// entry was found. Tier failures are logged and treated as misses.
func (s *Service) Get(ctx context.Context, key string, dest interface{}) bool {
	if s.primary != nil {
		value, found, err := s.primary.Get(ctx, key)
		if err != nil {
			s.logger.Warn("primary cache get failed", "key", key, "err", err)
		} else if found {
			if err := json.Unmarshal(value, dest); err != nil {
				s.logger.Warn("cached value is not decodable, treating as miss", "key", key, "err", err)
			} else {
				return true
			}
		}
	}

	value, found, err := s.fallback.Get(ctx, key)
	if err != nil || !found {
		return false
	}
	if err := json.Unmarshal(value, dest); err != nil {
		s.logger.Warn("fallback cached value is not decodable, treating as miss", "key", key, "err", err)
		return false
	}
	return true
}

// Set stores value under key for ttl. A non-positive ttl bypasses caching
// entirely. Failures are logged and swallowed; the caller already holds the
// freshly computed value.
func (s *Service) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("value is not cacheable, skipping", "key", key, "err", err)
		return
	}

	if s.primary != nil {
		if err := s.primary.Set(ctx, key, encoded, ttl); err == nil {
			return
		} else {
			s.logger.Warn("primary cache set failed, writing to fallback", "key", key, "err", err)
		}
	}

	if err := s.fallback.Set(ctx, key, encoded, ttl); err != nil {
		s.logger.Warn("fallback cache set failed", "key", key, "err", err)
	}
}

// Delete purges key from whichever tier holds it. Deleting an absent key is
// a no-op.
func (s *Service) Delete(ctx context.Context, key string) {
	if s.primary != nil {
		if err := s.primary.Delete(ctx, key); err != nil {
			s.logger.Warn("primary cache delete failed", "key", key, "err", err)
		}
	}
	if err := s.fallback.Delete(ctx, key); err != nil {
		s.logger.Warn("fallback cache delete failed", "key", key, "err", err)
	}
}

// Stats reports availability and entry counts for both tiers.
func (s *Service) Stats(ctx context.Context) Stats {
	stats := Stats{}

	if s.primary != nil {
		if err := s.primary.Ping(ctx); err == nil {
			stats.PrimaryAvailable = true
			if n, err := s.primary.Len(ctx); err == nil {
				stats.PrimarySize = n
			}
		}
	}

	if n, err := s.fallback.Len(ctx); err == nil {
		stats.FallbackSize = n
	}

	return stats
}

// maxKeyLength keeps keys within what the backing stores handle comfortably.
const maxKeyLength = 200

// Key builds a cache key from a prefix and its parameters. Overlong keys are
// collapsed to the prefix plus a stable hash suffix.
func Key(prefix string, parts ...string) string {
	joined := prefix
	if len(parts) > 0 {
		joined = prefix + "|" + strings.Join(parts, "|")
	}

	if len(joined) > maxKeyLength {
		sum := md5.Sum([]byte(joined))
		return prefix + ":" + hex.EncodeToString(sum[:])[:8]
	}

	replacer := strings.NewReplacer(" ", "_", ":", "_")
	return replacer.Replace(joined)
}
