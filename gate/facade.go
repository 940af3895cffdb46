// Package gate is the query surface feature gates consume. It composes the
// product catalog, the entitlement store, and the pure evaluator, caching
// raw rows (never decisions) behind an explicitly invalidated snapshot
// cache.
package gate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Options tune the facade. Zero values get sensible defaults.
type Options struct {
	// SnapshotTTL bounds how stale a cached entitlement snapshot may be
	// before a reload, so changes made outside this process (staff
	// console against the same store) become visible. Default 60s.
	SnapshotTTL time.Duration

	// CatalogTTL bounds product catalog staleness. Default 5m.
	CatalogTTL time.Duration

	// CheckTimeout caps one gate check. On timeout the check fails
	// closed to locked. Default 2s.
	CheckTimeout time.Duration

	Logger logrus.FieldLogger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Facade answers "does this user have access to this product right now".
type Facade struct {
	store        entitlements.Store
	cache        SnapshotCache
	snapshotTTL  time.Duration
	checkTimeout time.Duration
	catalogTTL   time.Duration
	log          logrus.FieldLogger
	now          func() time.Time

	mu        sync.Mutex
	catalog   map[string]entitlements.Product
	catalogAt time.Time
}

func New(store entitlements.Store, cache SnapshotCache, opts Options) *Facade {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 60 * time.Second
	}
	if opts.CatalogTTL <= 0 {
		opts.CatalogTTL = 5 * time.Minute
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		opts.Logger = l
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if cache == nil {
		cache = NewMemoryCache(opts.SnapshotTTL)
	}
	return &Facade{
		store:        store,
		cache:        cache,
		snapshotTTL:  opts.SnapshotTTL,
		checkTimeout: opts.CheckTimeout,
		catalogTTL:   opts.CatalogTTL,
		log:          opts.Logger,
		now:          opts.Clock,
	}
}

// GetAccess evaluates one (user, product) pair at the current instant.
// Never returns an error: store trouble fails closed to locked with a
// loggable reason, since granting unintended access to a paid feature is
// the costlier failure mode.
func (f *Facade) GetAccess(ctx context.Context, userID uuid.UUID, productID string) entitlements.AccessDecision {
	ctx, cancel := context.WithTimeout(ctx, f.checkTimeout)
	defer cancel()

	product, ok, err := f.product(ctx, productID)
	if err != nil {
		f.log.WithError(err).WithField("product_id", productID).Warn("catalog load failed, failing closed")
		return lockedDecision(entitlements.ReasonStoreUnavailable)
	}
	if !ok {
		return lockedDecision(entitlements.ReasonUnknownProduct)
	}

	snap, err := f.snapshot(ctx, userID)
	if err != nil {
		f.log.WithError(err).WithField("user_id", userID).Warn("entitlement load failed, failing closed")
		return lockedDecision(entitlements.ReasonStoreUnavailable)
	}

	return entitlements.Evaluate(findRow(snap.Entitlements, productID), product, f.now())
}

// GetAccessMap evaluates every catalog product for one user off a single
// snapshot load. Used by dashboards that render many gates at once.
func (f *Facade) GetAccessMap(ctx context.Context, userID uuid.UUID) map[string]entitlements.AccessDecision {
	ctx, cancel := context.WithTimeout(ctx, f.checkTimeout)
	defer cancel()

	out := make(map[string]entitlements.AccessDecision)
	catalog, err := f.catalogMap(ctx)
	if err != nil {
		f.log.WithError(err).Warn("catalog load failed, failing closed")
		return out
	}
	snap, err := f.snapshot(ctx, userID)
	if err != nil {
		f.log.WithError(err).WithField("user_id", userID).Warn("entitlement load failed, failing closed")
		for id := range catalog {
			out[id] = lockedDecision(entitlements.ReasonStoreUnavailable)
		}
		return out
	}
	now := f.now()
	for id, p := range catalog {
		out[id] = entitlements.Evaluate(findRow(snap.Entitlements, id), p, now)
	}
	return out
}

// GetAllProducts returns the browsable catalog: active products in
// sort_order. Inactive products stay evaluable through GetAccess but are
// hidden here.
func (f *Facade) GetAllProducts(ctx context.Context) ([]entitlements.Product, error) {
	catalog, err := f.catalogMap(ctx)
	if err != nil {
		return nil, err
	}
	var out []entitlements.Product
	for _, p := range catalog {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

// GetAllProductsIncludingInactive is the staff-console variant.
func (f *Facade) GetAllProductsIncludingInactive(ctx context.Context) ([]entitlements.Product, error) {
	catalog, err := f.catalogMap(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entitlements.Product, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

// Invalidate drops the cached snapshot for a user. Called by the
// administrator and the usage meter after every committed mutation, and
// available for explicit manual refresh. Best-effort: a cache that cannot
// be reached only delays visibility until the TTL.
func (f *Facade) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := f.cache.Del(ctx, userID); err != nil {
		f.log.WithError(err).WithField("user_id", userID).Warn("snapshot invalidation failed")
	}
}

// RefreshCatalog forces the next catalog read to hit the store.
func (f *Facade) RefreshCatalog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = nil
	f.catalogAt = time.Time{}
}

func (f *Facade) snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	snap, ok, err := f.cache.Get(ctx, userID)
	if err != nil {
		// A broken cache is not a broken store; fall through to a
		// direct load.
		f.log.WithError(err).WithField("user_id", userID).Warn("snapshot cache read failed")
	} else if ok && f.now().Sub(snap.LoadedAt) <= f.snapshotTTL {
		return snap, nil
	}

	rows, err := f.store.GetEntitlements(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap = Snapshot{Entitlements: rows, LoadedAt: f.now()}
	if err := f.cache.Put(ctx, userID, snap); err != nil {
		f.log.WithError(err).WithField("user_id", userID).Warn("snapshot cache write failed")
	}
	return snap, nil
}

func (f *Facade) catalogMap(ctx context.Context) (map[string]entitlements.Product, error) {
	f.mu.Lock()
	if f.catalog != nil && f.now().Sub(f.catalogAt) <= f.catalogTTL {
		m := f.catalog
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()

	products, err := f.store.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]entitlements.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	f.mu.Lock()
	f.catalog = m
	f.catalogAt = f.now()
	f.mu.Unlock()
	return m, nil
}

func (f *Facade) product(ctx context.Context, productID string) (entitlements.Product, bool, error) {
	catalog, err := f.catalogMap(ctx)
	if err != nil {
		return entitlements.Product{}, false, err
	}
	p, ok := catalog[productID]
	return p, ok, nil
}

func findRow(rows []entitlements.UserEntitlement, productID string) *entitlements.UserEntitlement {
	for i := range rows {
		if rows[i].ProductID == productID {
			return &rows[i]
		}
	}
	return nil
}

func lockedDecision(reason string) entitlements.AccessDecision {
	return entitlements.AccessDecision{HasAccess: false, Status: entitlements.StatusLocked, Reason: reason}
}

func sortProducts(ps []entitlements.Product) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].SortOrder != ps[j].SortOrder {
			return ps[i].SortOrder < ps[j].SortOrder
		}
		return ps[i].ID < ps[j].ID
	})
}
