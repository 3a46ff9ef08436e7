package store

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryLimiter is the single-process RedisLimiter. A counter expires one
// window after the user's first reservation.
type MemoryLimiter struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, int]
	limit int
}

// NewMemoryLimiter starts the expiration loop; call Close to stop it.
// A zero window keeps counters for the life of the process.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	c := ttlcache.New[string, int](
		ttlcache.WithTTL[string, int](window),
		ttlcache.WithDisableTouchOnHit[string, int](),
	)
	go c.Start()
	return &MemoryLimiter{cache: c, limit: limit}
}

func (m *MemoryLimiter) Close() {
	m.cache.Stop()
}

func (m *MemoryLimiter) Reserve(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.cache.Get(userID)
	if item == nil {
		if m.limit < 1 {
			return false, nil
		}
		m.cache.Set(userID, 1, ttlcache.DefaultTTL)
		return true, nil
	}
	if item.Value() >= m.limit {
		return false, nil
	}
	m.update(item, item.Value()+1)
	return true, nil
}

func (m *MemoryLimiter) Release(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item := m.cache.Get(userID); item != nil && item.Value() > 0 {
		m.update(item, item.Value()-1)
	}
	return nil
}

// update stores n without moving the item's expiry.
func (m *MemoryLimiter) update(item *ttlcache.Item[string, int], n int) {
	ttl := ttlcache.NoTTL
	if !item.ExpiresAt().IsZero() {
		ttl = time.Until(item.ExpiresAt())
		if ttl <= 0 {
			m.cache.Delete(item.Key())
			return
		}
	}
	m.cache.Set(item.Key(), n, ttl)
}

// Usage returns the current count for a user.
func (m *MemoryLimiter) Usage(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item := m.cache.Get(userID); item != nil {
		return item.Value(), nil
	}
	return 0, nil
}
