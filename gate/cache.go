package gate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Snapshot is one user's raw entitlement rows as loaded from the store.
// Decisions are never cached, only rows: a decision depends on "now" and
// would go stale the moment a trial clock ticked past its end.
type Snapshot struct {
	Entitlements []entitlements.UserEntitlement `json:"entitlements"`
	LoadedAt     time.Time                      `json:"loaded_at"`
}

// SnapshotCache stores per-user snapshots with a bounded lifetime.
// Implementations: in-memory (this package) and redis
// (storage/redis.SnapshotCache).
type SnapshotCache interface {
	Put(ctx context.Context, userID uuid.UUID, snap Snapshot) error
	Get(ctx context.Context, userID uuid.UUID) (Snapshot, bool, error)
	Del(ctx context.Context, userID uuid.UUID) error
}
