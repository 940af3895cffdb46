// Package admin mutates entitlement rows on behalf of staff: grants,
// trials, revocations, and the stale-trial reconciliation sweep. Every
// operation requires an acting staff identity and leaves an audit trail.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Administrator performs staff mutations against the entitlement store.
// Writes are last-writer-wins upserts keyed on (user, product); repeating
// a call with the same arguments converges to the same row, so callers may
// retry after a surfaced failure.
type Administrator struct {
	store entitlements.Store
	inval entitlements.CacheInvalidator
	audit AuditLogger
	log   logrus.FieldLogger
	now   func() time.Time
}

// New builds an Administrator. inval and audit may be nil; log may be nil.
func New(store entitlements.Store, inval entitlements.CacheInvalidator, audit AuditLogger, log logrus.FieldLogger) *Administrator {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	if audit == nil {
		audit = LogrusAudit{Log: log}
	}
	return &Administrator{store: store, inval: inval, audit: audit, log: log, now: time.Now}
}

// SetClock overrides the timestamp source, for tests.
func (a *Administrator) SetClock(now func() time.Time) { a.now = now }

// GrantInput describes a paid or admin grant.
type GrantInput struct {
	// Status must be active or admin_granted.
	Status entitlements.Status
	// ExpiresAt nil means indefinite access.
	ExpiresAt *time.Time
	Note      string
}

// GrantAccess upserts the row to the requested status, clearing any trial
// state. A grant always wins over an in-progress trial.
func (a *Administrator) GrantAccess(ctx context.Context, actorID, userID uuid.UUID, productID string, in GrantInput) error {
	if in.Status != entitlements.StatusActive && in.Status != entitlements.StatusAdminGranted {
		return fmt.Errorf("admin: grant status must be active or admin_granted, got %q", in.Status)
	}
	if err := a.requireProduct(ctx, productID); err != nil {
		return err
	}

	actor := actorID
	row := entitlements.UserEntitlement{
		UserID:       userID,
		ProductID:    productID,
		Status:       in.Status,
		UsageCount:   0,
		AccessEndsAt: in.ExpiresAt,
		GrantedBy:    &actor,
		Note:         in.Note,
	}
	if err := a.store.UpsertEntitlement(ctx, row); err != nil {
		return fmt.Errorf("admin: grant access: %w", err)
	}
	a.finish(ctx, Event{
		ActorID: actorID, UserID: userID, ProductID: productID,
		Action: "grant", To: in.Status, Note: in.Note, At: a.now(),
	})
	return nil
}

// TrialInput describes a staff-issued trial. Exactly one metering field
// must be set, matching the product's trial type.
type TrialInput struct {
	// TrialStartsAt zero means now.
	TrialStartsAt time.Time
	TrialEndsAt   *time.Time
	UsageLimit    *int
	Note          string
}

// GrantTrial upserts the row to trial status with the usage counter reset.
// Re-granting to a user who already exhausted a trial is a deliberate
// staff override and succeeds; lockout policy, if wanted, belongs to a
// higher layer.
func (a *Administrator) GrantTrial(ctx context.Context, actorID, userID uuid.UUID, productID string, in TrialInput) error {
	product, err := a.product(ctx, productID)
	if err != nil {
		return err
	}

	switch product.TrialType {
	case entitlements.TrialUsage:
		if in.UsageLimit == nil || in.TrialEndsAt != nil {
			return fmt.Errorf("%w: product %q is usage-metered", entitlements.ErrInvalidTrialConfiguration, productID)
		}
		if *in.UsageLimit <= 0 {
			return fmt.Errorf("%w: usage limit must be positive", entitlements.ErrInvalidTrialConfiguration)
		}
	case entitlements.TrialTime:
		if in.TrialEndsAt == nil || in.UsageLimit != nil {
			return fmt.Errorf("%w: product %q is time-metered", entitlements.ErrInvalidTrialConfiguration, productID)
		}
	default:
		return fmt.Errorf("%w: product %q offers no trial", entitlements.ErrInvalidTrialConfiguration, productID)
	}

	startsAt := in.TrialStartsAt
	if startsAt.IsZero() {
		startsAt = a.now()
	}
	actor := actorID
	row := entitlements.UserEntitlement{
		UserID:         userID,
		ProductID:      productID,
		Status:         entitlements.StatusTrial,
		TrialStartedAt: &startsAt,
		TrialEndsAt:    in.TrialEndsAt,
		UsageCount:     0,
		UsageLimit:     in.UsageLimit,
		GrantedBy:      &actor,
		Note:           in.Note,
	}
	if err := a.store.UpsertEntitlement(ctx, row); err != nil {
		return fmt.Errorf("admin: grant trial: %w", err)
	}
	a.finish(ctx, Event{
		ActorID: actorID, UserID: userID, ProductID: productID,
		Action: "grant_trial", To: entitlements.StatusTrial, Note: in.Note, At: a.now(),
	})
	return nil
}

// RevokeAccess marks the row cancelled, leaving trial/usage fields
// untouched for audit history. Cancelled is terminal until a fresh grant.
func (a *Administrator) RevokeAccess(ctx context.Context, actorID, userID uuid.UUID, productID string) error {
	rows, err := a.store.GetEntitlements(ctx, userID)
	if err != nil {
		return fmt.Errorf("admin: revoke access: %w", err)
	}
	var row *entitlements.UserEntitlement
	for i := range rows {
		if rows[i].ProductID == productID {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return fmt.Errorf("%w: user %s has no %q entitlement", entitlements.ErrNotFound, userID, productID)
	}

	actor := actorID
	updated := *row
	updated.Status = entitlements.StatusCancelled
	updated.GrantedBy = &actor
	if err := a.store.UpsertEntitlement(ctx, updated); err != nil {
		return fmt.Errorf("admin: revoke access: %w", err)
	}
	a.finish(ctx, Event{
		ActorID: actorID, UserID: userID, ProductID: productID,
		Action: "revoke", To: entitlements.StatusCancelled, At: a.now(),
	})
	return nil
}

// BulkExpireStaleTrials rewrites stored status to expired for trial rows
// the evaluator already considers expired. Pure bookkeeping for reporting:
// access correctness never depends on this having run. Idempotent, and it
// never touches a trial the evaluator still considers valid.
//
// Returns the number of rows transitioned. Interrupting mid-sweep is safe;
// a rerun picks up the remainder.
func (a *Administrator) BulkExpireStaleTrials(ctx context.Context, actorID uuid.UUID) (int, error) {
	rows, err := a.store.ListAllEntitlements(ctx)
	if err != nil {
		return 0, fmt.Errorf("admin: bulk expire: %w", err)
	}

	now := a.now()
	expired := 0
	for i := range rows {
		row := rows[i]
		if row.Status != entitlements.StatusTrial {
			continue
		}
		// Trial derivation depends only on the row's own fields, so an
		// empty product is fine here.
		decision := entitlements.Evaluate(&row, entitlements.Product{}, now)
		if decision.Status != entitlements.StatusExpired {
			continue
		}
		row.Status = entitlements.StatusExpired
		if err := a.store.UpsertEntitlement(ctx, row); err != nil {
			return expired, fmt.Errorf("admin: bulk expire %s/%s: %w", row.UserID, row.ProductID, err)
		}
		if a.inval != nil {
			a.inval.Invalidate(ctx, row.UserID)
		}
		expired++
	}

	if expired > 0 {
		a.finish(ctx, Event{
			ActorID: actorID, Action: "bulk_expire",
			To: entitlements.StatusExpired,
			Note: fmt.Sprintf("expired %d stale trials", expired), At: now,
		})
	}
	return expired, nil
}

// EntitlementListing is one staff-console table row: the entitlement plus
// the owning user's display info when known.
type EntitlementListing struct {
	entitlements.UserEntitlement
	User *entitlements.UserRef `json:"user,omitempty"`
}

// ListEntitlements returns every row joined with user display info.
func (a *Administrator) ListEntitlements(ctx context.Context) ([]EntitlementListing, error) {
	rows, err := a.store.ListAllEntitlements(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: list entitlements: %w", err)
	}
	users, err := a.store.ListAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: list users: %w", err)
	}
	byID := make(map[uuid.UUID]entitlements.UserRef, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]EntitlementListing, 0, len(rows))
	for _, row := range rows {
		l := EntitlementListing{UserEntitlement: row}
		if u, ok := byID[row.UserID]; ok {
			ref := u
			l.User = &ref
		}
		out = append(out, l)
	}
	return out, nil
}

func (a *Administrator) product(ctx context.Context, productID string) (entitlements.Product, error) {
	products, err := a.store.GetProducts(ctx)
	if err != nil {
		return entitlements.Product{}, fmt.Errorf("admin: load catalog: %w", err)
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return entitlements.Product{}, fmt.Errorf("%w: %q", entitlements.ErrUnknownProduct, productID)
}

func (a *Administrator) requireProduct(ctx context.Context, productID string) error {
	_, err := a.product(ctx, productID)
	return err
}

// finish runs the post-commit bookkeeping: audit first, then cache
// invalidation, both best-effort and after the write.
func (a *Administrator) finish(ctx context.Context, ev Event) {
	if err := a.audit.LogEntitlementChange(ctx, ev); err != nil {
		a.log.WithError(err).Warn("audit sink failed")
	}
	if a.inval != nil && ev.UserID != uuid.Nil {
		a.inval.Invalidate(ctx, ev.UserID)
	}
}
