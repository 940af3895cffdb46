// Package testing provides utilities for testing applications that use
// entitlekit. It wires the full engine against an in-memory store with a
// controllable clock, so host-app tests can grant, spend, and expire
// trials without Postgres or redis.
//
// Example usage:
//
//	fx := testing.NewFixture()
//	fx.SeedUsageProduct("snappro", 10)
//	_ = fx.Admin.GrantTrial(ctx, staffID, userID, "snappro", admin.TrialInput{UsageLimit: ptr(10)})
//	fx.Advance(48 * time.Hour)
//	decision := fx.Facade.GetAccess(ctx, userID, "snappro")
package testing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/admin"
	"github.com/PaulFidika/entitlekit/entitlements"
	"github.com/PaulFidika/entitlekit/gate"
	memorystore "github.com/PaulFidika/entitlekit/storage/memory"
)

// Fixture is a fully wired entitlement engine over an in-memory store.
type Fixture struct {
	Store  *memorystore.Store
	Facade *gate.Facade
	Meter  *entitlements.Meter
	Admin  *admin.Administrator

	mu  sync.Mutex
	now time.Time
}

// NewFixture builds a fixture whose clock starts at a fixed instant and
// only moves when Advance or SetNow is called.
func NewFixture() *Fixture {
	fx := &Fixture{
		Store: memorystore.NewStore(),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := fx.Now
	fx.Store.SetClock(clock)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	fx.Facade = gate.New(fx.Store, nil, gate.Options{
		SnapshotTTL:  time.Minute,
		CheckTimeout: time.Second,
		Logger:       log,
		Clock:        clock,
	})
	fx.Meter = entitlements.NewMeter(fx.Store, fx.Facade, log)
	fx.Admin = admin.New(fx.Store, fx.Facade, nil, log)
	fx.Admin.SetClock(clock)
	return fx
}

// Now is the fixture's clock.
func (f *Fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward.
func (f *Fixture) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// SetNow pins the clock to an instant.
func (f *Fixture) SetNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// SeedUsageProduct registers an active usage-trial product.
func (f *Fixture) SeedUsageProduct(id string, limit int) {
	f.Store.SeedProduct(entitlements.Product{
		ID: id, Name: id, TrialType: entitlements.TrialUsage,
		TrialLimit: limit, IsActive: true,
	})
	f.Facade.RefreshCatalog()
}

// SeedTimeProduct registers an active time-trial product.
func (f *Fixture) SeedTimeProduct(id string, days int) {
	f.Store.SeedProduct(entitlements.Product{
		ID: id, Name: id, TrialType: entitlements.TrialTime,
		TrialLimit: days, IsActive: true,
	})
	f.Facade.RefreshCatalog()
}

// SeedProduct registers an arbitrary product.
func (f *Fixture) SeedProduct(p entitlements.Product) {
	f.Store.SeedProduct(p)
	f.Facade.RefreshCatalog()
}
