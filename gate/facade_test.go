package gate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulFidika/entitlekit/admin"
	"github.com/PaulFidika/entitlekit/entitlements"
	"github.com/PaulFidika/entitlekit/gate"
	entitletesting "github.com/PaulFidika/entitlekit/testing"
)

var (
	staffID = uuid.MustParse("0a821f5d-94a7-4b9e-8a7e-6d1f2b3c4d5e")
	userID  = uuid.MustParse("3c29b7aa-5d10-4f7e-b2ce-9e8f7a6b5c4d")
)

// The full usage-trial lifecycle: locked, trialed, spent, expired.
func TestUsageTrialLifecycle(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedUsageProduct("snappro", 10)
	ctx := context.Background()

	d := fx.Facade.GetAccess(ctx, userID, "snappro")
	assert.False(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusLocked, d.Status)

	limit := 10
	require.NoError(t, fx.Admin.GrantTrial(ctx, staffID, userID, "snappro", admin.TrialInput{UsageLimit: &limit}))

	d = fx.Facade.GetAccess(ctx, userID, "snappro")
	require.True(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusTrial, d.Status)
	require.NotNil(t, d.Trial)
	assert.Equal(t, 0, *d.Trial.UsageCount)
	assert.Equal(t, 10, *d.Trial.UsageLimit)

	for i := 1; i <= 10; i++ {
		res, err := fx.Meter.IncrementUsage(ctx, userID, "snappro")
		require.NoError(t, err)
		require.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, i, res.UsageCount)
	}

	res, err := fx.Meter.IncrementUsage(ctx, userID, "snappro")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	d = fx.Facade.GetAccess(ctx, userID, "snappro")
	assert.False(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusExpired, d.Status)
	assert.Equal(t, entitlements.ReasonTrialExhausted, d.Reason)
}

// The full time-trial lifecycle across a simulated week.
func TestTimeTrialLifecycle(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedTimeProduct("analytics", 7)
	ctx := context.Background()

	start := fx.Now()
	ends := start.AddDate(0, 0, 7)
	require.NoError(t, fx.Admin.GrantTrial(ctx, staffID, userID, "analytics", admin.TrialInput{
		TrialStartsAt: start,
		TrialEndsAt:   &ends,
	}))

	fx.Advance(24 * time.Hour)
	d := fx.Facade.GetAccess(ctx, userID, "analytics")
	require.True(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusTrial, d.Status)
	require.NotNil(t, d.Trial)
	assert.Equal(t, 6, *d.Trial.DaysRemaining)

	fx.Advance(7 * 24 * time.Hour) // now start+8d
	d = fx.Facade.GetAccess(ctx, userID, "analytics")
	assert.False(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusExpired, d.Status)
	assert.Equal(t, entitlements.ReasonTrialEnded, d.Reason)
}

// An admin grant after an exhausted trial takes effect on the very next
// read, with no dependency on the sweep or cache expiry.
func TestAdminOverrideVisibleImmediately(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedUsageProduct("snappro", 1)
	ctx := context.Background()

	limit := 1
	require.NoError(t, fx.Admin.GrantTrial(ctx, staffID, userID, "snappro", admin.TrialInput{UsageLimit: &limit}))
	res, err := fx.Meter.IncrementUsage(ctx, userID, "snappro")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	d := fx.Facade.GetAccess(ctx, userID, "snappro")
	require.Equal(t, entitlements.StatusExpired, d.Status)

	require.NoError(t, fx.Admin.GrantAccess(ctx, staffID, userID, "snappro", admin.GrantInput{
		Status: entitlements.StatusAdminGranted,
	}))

	d = fx.Facade.GetAccess(ctx, userID, "snappro")
	assert.True(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusAdminGranted, d.Status)

	// Usage increments no longer apply; the row left trial status.
	res, err = fx.Meter.IncrementUsage(ctx, userID, "snappro")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	d = fx.Facade.GetAccess(ctx, userID, "snappro")
	assert.True(t, d.HasAccess)
}

func TestRevokeThenRegrant(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedUsageProduct("snappro", 10)
	ctx := context.Background()

	require.NoError(t, fx.Admin.GrantAccess(ctx, staffID, userID, "snappro", admin.GrantInput{
		Status: entitlements.StatusActive,
	}))
	require.NoError(t, fx.Admin.RevokeAccess(ctx, staffID, userID, "snappro"))

	for _, advance := range []time.Duration{0, 90 * 24 * time.Hour} {
		fx.Advance(advance)
		d := fx.Facade.GetAccess(ctx, userID, "snappro")
		assert.False(t, d.HasAccess)
		assert.Equal(t, entitlements.StatusCancelled, d.Status)
	}

	require.NoError(t, fx.Admin.GrantAccess(ctx, staffID, userID, "snappro", admin.GrantInput{
		Status: entitlements.StatusActive,
	}))
	d := fx.Facade.GetAccess(ctx, userID, "snappro")
	assert.True(t, d.HasAccess)
}

func TestUnknownProductIsLocked(t *testing.T) {
	fx := entitletesting.NewFixture()
	d := fx.Facade.GetAccess(context.Background(), userID, "nope")
	assert.False(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusLocked, d.Status)
	assert.Equal(t, entitlements.ReasonUnknownProduct, d.Reason)
}

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) GetEntitlements(context.Context, uuid.UUID) ([]entitlements.UserEntitlement, error) {
	return nil, errStoreDown
}
func (failingStore) GetProducts(context.Context) ([]entitlements.Product, error) {
	return nil, errStoreDown
}
func (failingStore) UpsertEntitlement(context.Context, entitlements.UserEntitlement) error {
	return errStoreDown
}
func (failingStore) ConditionalIncrementUsage(context.Context, uuid.UUID, string) (entitlements.IncrementResult, error) {
	return entitlements.IncrementResult{}, errStoreDown
}
func (failingStore) ListAllEntitlements(context.Context) ([]entitlements.UserEntitlement, error) {
	return nil, errStoreDown
}
func (failingStore) ListAllUsers(context.Context) ([]entitlements.UserRef, error) {
	return nil, errStoreDown
}

func TestStoreFailureFailsClosed(t *testing.T) {
	f := gate.New(failingStore{}, nil, gate.Options{})
	d := f.GetAccess(context.Background(), userID, "snappro")
	assert.False(t, d.HasAccess)
	assert.Equal(t, entitlements.StatusLocked, d.Status)
	assert.Equal(t, entitlements.ReasonStoreUnavailable, d.Reason)
}

func TestGetAllProductsFiltersAndSorts(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedProduct(entitlements.Product{ID: "b_second", IsActive: true, SortOrder: 2})
	fx.SeedProduct(entitlements.Product{ID: "a_first", IsActive: true, SortOrder: 1})
	fx.SeedProduct(entitlements.Product{ID: "hidden", IsActive: false, SortOrder: 0})

	products, err := fx.Facade.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a_first", products[0].ID)
	assert.Equal(t, "b_second", products[1].ID)

	all, err := fx.Facade.GetAllProductsIncludingInactive(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// Entitlements against inactive products keep working even though the
// product is hidden from browsing.
func TestInactiveProductStillEvaluates(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedProduct(entitlements.Product{
		ID: "legacy", TrialType: entitlements.TrialUsage, TrialLimit: 5, IsActive: false,
	})
	ctx := context.Background()

	limit := 5
	require.NoError(t, fx.Admin.GrantTrial(ctx, staffID, userID, "legacy", admin.TrialInput{UsageLimit: &limit}))
	d := fx.Facade.GetAccess(ctx, userID, "legacy")
	assert.True(t, d.HasAccess)
}

func TestGetAccessMapCoversCatalog(t *testing.T) {
	fx := entitletesting.NewFixture()
	fx.SeedUsageProduct("snappro", 10)
	fx.SeedTimeProduct("analytics", 7)
	ctx := context.Background()

	limit := 10
	require.NoError(t, fx.Admin.GrantTrial(ctx, staffID, userID, "snappro", admin.TrialInput{UsageLimit: &limit}))

	m := fx.Facade.GetAccessMap(ctx, userID)
	require.Len(t, m, 2)
	assert.Equal(t, entitlements.StatusTrial, m["snappro"].Status)
	assert.Equal(t, entitlements.StatusLocked, m["analytics"].Status)
}
