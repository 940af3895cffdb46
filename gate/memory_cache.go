package gate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCache is an in-memory SnapshotCache with TTL.
type MemoryCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	data   map[uuid.UUID]cacheItem
	closed chan struct{}
}

type cacheItem struct {
	snap Snapshot
	exp  time.Time
}

// NewMemoryCache creates an in-memory snapshot cache with the given TTL.
// If ttl <= 0, a default of 60 seconds is used.
// Starts a background goroutine to clean up expired entries every minute.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	c := &MemoryCache{ttl: ttl, data: make(map[uuid.UUID]cacheItem), closed: make(chan struct{})}
	go c.cleanupLoop()
	return c
}

func (c *MemoryCache) Put(ctx context.Context, userID uuid.UUID, snap Snapshot) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[userID] = cacheItem{snap: snap, exp: time.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, userID uuid.UUID) (Snapshot, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.data[userID]
	if !ok {
		return Snapshot{}, false, nil
	}
	if time.Now().After(it.exp) {
		delete(c.data, userID)
		return Snapshot{}, false, nil
	}
	return it.snap, true, nil
}

func (c *MemoryCache) Del(ctx context.Context, userID uuid.UUID) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	return nil
}

// cleanupLoop runs in the background and removes expired entries every minute.
func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.closed:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.data {
		if now.After(v.exp) {
			delete(c.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
func (c *MemoryCache) Close() error {
	close(c.closed)
	return nil
}
