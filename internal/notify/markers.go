// Package notify contains the outbound notification machinery: gateway
// sinks, the redis-backed throttle marker store and the per-booking
// notification history.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker key layout.  One key per (booking, alert kind); the value is the
// send timestamp but only key existence matters for throttling.
const (
	progressKeyPrefix   = "walk:notify:last:"
	stationaryKeyPrefix = "walk:stationary:"
	historyKeyPrefix    = "walk:notify:history:"
)

// ProgressKey is the throttle marker key for periodic progress updates.
func ProgressKey(bookingID string) string { return progressKeyPrefix + bookingID }

// StationaryKey is the throttle marker key for no-movement alerts.
func StationaryKey(bookingID string) string { return stationaryKeyPrefix + bookingID }

// HistoryKey is the notification history list key for a booking.
func HistoryKey(bookingID string) string { return historyKeyPrefix + bookingID }

// MarkerStore rate-limits repeated alerts with TTL markers.  Acquire must
// be atomic "set if absent with TTL": under concurrent evaluator runs only
// one caller wins the marker per window.  Markers are ephemeral; losing one
// early only risks an alert re-sending, never data loss.
type MarkerStore interface {
	// Acquire atomically claims the marker for ttl.  It returns true when
	// the caller claimed it (no marker was present), false when a live
	// marker already exists.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Clear removes markers, typically when a walk completes.
	Clear(ctx context.Context, keys ...string) error
}

// RedisMarkerStore implements MarkerStore on a shared redis instance using
// SET NX EX, the sole coordination point between scheduler instances.
type RedisMarkerStore struct {
	rdb *redis.Client
}

// NewRedisMarkerStore returns a MarkerStore over the given client.
func NewRedisMarkerStore(rdb *redis.Client) *RedisMarkerStore {
	if rdb == nil {
		panic("nil redis client passed to NewRedisMarkerStore")
	}
	return &RedisMarkerStore{rdb: rdb}
}

func (s *RedisMarkerStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("marker acquire %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisMarkerStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// MemoryMarkerStore is a process-local MarkerStore used in tests and when
// redis is unavailable at startup.  It provides the same set-if-absent
// semantics within a single process only.
type MemoryMarkerStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryMarkerStore returns an empty in-process marker store.
func NewMemoryMarkerStore() *MemoryMarkerStore {
	return &MemoryMarkerStore{expires: make(map[string]time.Time), now: time.Now}
}

// SetClock overrides the store's clock.  Test helper.
func (s *MemoryMarkerStore) SetClock(now func() time.Time) { s.now = now }

func (s *MemoryMarkerStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.expires[key]; ok && exp.After(now) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryMarkerStore) Clear(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.expires, k)
	}
	return nil
}
