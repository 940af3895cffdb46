package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/PaulFidika/entitlekit/gate"
)

// SnapshotCache is a redis-backed gate.SnapshotCache, for deployments
// where gate checks run on many instances and an admin mutation on one
// must invalidate the snapshot seen by all.
type SnapshotCache struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

func NewSnapshotCache(rdb *redis.Client, keyPrefix string, ttl time.Duration) *SnapshotCache {
	if keyPrefix == "" {
		keyPrefix = "entitlements:snapshot:"
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &SnapshotCache{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (c *SnapshotCache) key(userID uuid.UUID) string { return c.keyNS + userID.String() }

func (c *SnapshotCache) Put(ctx context.Context, userID uuid.UUID, snap gate.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(userID), b, c.ttl).Err()
}

func (c *SnapshotCache) Get(ctx context.Context, userID uuid.UUID) (gate.Snapshot, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if err == redis.Nil {
		return gate.Snapshot{}, false, nil
	}
	if err != nil {
		return gate.Snapshot{}, false, err
	}
	var snap gate.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return gate.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (c *SnapshotCache) Del(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, c.key(userID)).Err()
}
