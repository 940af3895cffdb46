package entitlements

import (
	"context"

	"github.com/google/uuid"
)

// IncrementResult is the outcome of a conditional usage increment.
// Success false means the limit was already met (or the row was not an
// incrementable trial); nothing was written.
type IncrementResult struct {
	Success    bool
	NewCount   int
	UsageLimit int
}

// Store is the durable source of truth for entitlement rows and the
// product catalog. Implementations must make ConditionalIncrementUsage a
// single atomic check-and-increment: the check against the limit and the
// write of count+1 must not be observable as separate steps by concurrent
// callers. This is the invariant the whole trial-metering design leans on.
type Store interface {
	// GetEntitlements returns all rows for one user.
	GetEntitlements(ctx context.Context, userID uuid.UUID) ([]UserEntitlement, error)

	// GetProducts returns the full catalog, inactive products included.
	GetProducts(ctx context.Context) ([]Product, error)

	// UpsertEntitlement writes a row keyed on (user, product),
	// last-writer-wins. CreatedAt is preserved on conflict.
	UpsertEntitlement(ctx context.Context, row UserEntitlement) error

	// ConditionalIncrementUsage adds 1 to usage_count only if the row is
	// a usage trial with usage_count < usage_limit, returning the new
	// count on success.
	ConditionalIncrementUsage(ctx context.Context, userID uuid.UUID, productID string) (IncrementResult, error)

	// ListAllEntitlements returns every row. Admin scope only.
	ListAllEntitlements(ctx context.Context) ([]UserEntitlement, error)

	// ListAllUsers returns display info for admin listings. Admin scope
	// only; not consulted by any access decision.
	ListAllUsers(ctx context.Context) ([]UserRef, error)
}

// CacheInvalidator drops any cached entitlement snapshot for a user so the
// next gate check observes fresh rows. Mutators call it after the write
// commits, never before.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}
