package entitlements

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	evalNow  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	evalUser = uuid.MustParse("7f9c24e5-1d3a-4b0e-9a6c-2f8e5d4c3b2a")
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func trialRow(mutate func(*UserEntitlement)) *UserEntitlement {
	e := &UserEntitlement{
		UserID:    evalUser,
		ProductID: "snappro",
		Status:    StatusTrial,
	}
	if mutate != nil {
		mutate(e)
	}
	return e
}

func TestEvaluateNoRowIsLocked(t *testing.T) {
	d := Evaluate(nil, Product{ID: "snappro"}, evalNow)
	if d.HasAccess {
		t.Error("no row must not grant access")
	}
	if d.Status != StatusLocked {
		t.Errorf("status = %q, want locked", d.Status)
	}
}

func TestEvaluateStoredStates(t *testing.T) {
	past := timePtr(evalNow.Add(-time.Hour))
	future := timePtr(evalNow.Add(time.Hour))

	tests := []struct {
		name       string
		row        *UserEntitlement
		wantAccess bool
		wantStatus Status
		wantReason string
	}{
		{"cancelled is terminal", &UserEntitlement{Status: StatusCancelled}, false, StatusCancelled, ReasonCancelled},
		{"admin grant indefinite", &UserEntitlement{Status: StatusAdminGranted}, true, StatusAdminGranted, ""},
		{"admin grant not yet ended", &UserEntitlement{Status: StatusAdminGranted, AccessEndsAt: future}, true, StatusAdminGranted, ""},
		{"admin grant ended", &UserEntitlement{Status: StatusAdminGranted, AccessEndsAt: past}, false, StatusExpired, ReasonAdminGrantEnded},
		{"active indefinite", &UserEntitlement{Status: StatusActive}, true, StatusActive, ""},
		{"active period ended", &UserEntitlement{Status: StatusActive, AccessEndsAt: past}, false, StatusExpired, ReasonPeriodEnded},
		{"stored expired", &UserEntitlement{Status: StatusExpired}, false, StatusExpired, ""},
		{"unknown status fails closed", &UserEntitlement{Status: Status("bogus")}, false, StatusLocked, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.row, Product{}, evalNow)
			if d.HasAccess != tt.wantAccess {
				t.Errorf("hasAccess = %v, want %v", d.HasAccess, tt.wantAccess)
			}
			if d.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", d.Status, tt.wantStatus)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluateUsageTrial(t *testing.T) {
	row := trialRow(func(e *UserEntitlement) {
		e.UsageCount = 3
		e.UsageLimit = intPtr(10)
	})
	d := Evaluate(row, Product{}, evalNow)
	if !d.HasAccess || d.Status != StatusTrial {
		t.Fatalf("got %+v, want accessible trial", d)
	}
	if d.Trial == nil || *d.Trial.UsageCount != 3 || *d.Trial.UsageLimit != 10 {
		t.Errorf("trial info = %+v, want count 3 limit 10", d.Trial)
	}

	row.UsageCount = 10
	d = Evaluate(row, Product{}, evalNow)
	if d.HasAccess {
		t.Error("exhausted trial must not grant access")
	}
	if d.Status != StatusExpired || d.Reason != ReasonTrialExhausted {
		t.Errorf("got status %q reason %q", d.Status, d.Reason)
	}
}

func TestEvaluateTimeTrialBoundary(t *testing.T) {
	endsAt := evalNow

	row := trialRow(func(e *UserEntitlement) { e.TrialEndsAt = timePtr(endsAt) })

	if d := Evaluate(row, Product{}, endsAt.Add(-time.Second)); !d.HasAccess {
		t.Error("one second before expiry must grant access")
	}
	if d := Evaluate(row, Product{}, endsAt); !d.HasAccess {
		t.Error("at the exact expiry instant access still holds")
	} else if *d.Trial.DaysRemaining != 0 {
		t.Errorf("daysRemaining at expiry = %d, want 0", *d.Trial.DaysRemaining)
	}
	d := Evaluate(row, Product{}, endsAt.Add(time.Second))
	if d.HasAccess {
		t.Error("one second after expiry must deny access")
	}
	if d.Status != StatusExpired || d.Reason != ReasonTrialEnded {
		t.Errorf("got status %q reason %q", d.Status, d.Reason)
	}
	if d.Trial == nil || *d.Trial.DaysRemaining != 0 {
		t.Errorf("daysRemaining after expiry = %+v, want 0", d.Trial)
	}
}

func TestEvaluateTimeTrialDaysRemaining(t *testing.T) {
	start := evalNow
	row := trialRow(func(e *UserEntitlement) {
		e.TrialStartedAt = timePtr(start)
		e.TrialEndsAt = timePtr(start.AddDate(0, 0, 7))
	})

	d := Evaluate(row, Product{}, start.AddDate(0, 0, 1))
	if !d.HasAccess || d.Trial == nil || *d.Trial.DaysRemaining != 6 {
		t.Fatalf("day 1 of a 7-day trial: got %+v, want 6 days remaining", d.Trial)
	}
	d = Evaluate(row, Product{}, start.AddDate(0, 0, 8))
	if d.HasAccess || d.Status != StatusExpired {
		t.Fatalf("day 8 of a 7-day trial: got %+v, want expired", d)
	}
	// Partial days round up.
	d = Evaluate(row, Product{}, start.AddDate(0, 0, 6).Add(-time.Hour))
	if *d.Trial.DaysRemaining != 2 {
		t.Errorf("partial day = %d days remaining, want 2", *d.Trial.DaysRemaining)
	}
}

func TestEvaluateTrialWithBothFields(t *testing.T) {
	// The schema does not forbid both metering fields; access requires
	// passing every populated check.
	row := trialRow(func(e *UserEntitlement) {
		e.UsageCount = 2
		e.UsageLimit = intPtr(5)
		e.TrialEndsAt = timePtr(evalNow.Add(time.Hour))
	})
	if d := Evaluate(row, Product{}, evalNow); !d.HasAccess {
		t.Error("within both limits must grant access")
	}
	if d := Evaluate(row, Product{}, evalNow.Add(2*time.Hour)); d.HasAccess || d.Reason != ReasonTrialEnded {
		t.Errorf("past time limit: got %+v", d)
	}
	row.UsageCount = 5
	if d := Evaluate(row, Product{}, evalNow); d.HasAccess || d.Reason != ReasonTrialExhausted {
		t.Errorf("usage exhausted checks first: got %+v", d)
	}
}

func TestEvaluateMalformedTrialFailsClosed(t *testing.T) {
	d := Evaluate(trialRow(nil), Product{}, evalNow)
	if d.HasAccess {
		t.Error("trial with no metering fields must not grant access")
	}
	if d.Status != StatusExpired || d.Reason != ReasonTrialMisconfig {
		t.Errorf("got status %q reason %q", d.Status, d.Reason)
	}
}

func TestEvaluateIgnoresProductTrialTypeForTrialRows(t *testing.T) {
	// A catalog policy change must not retroactively break rows issued
	// under the old policy: the row's own fields decide.
	row := trialRow(func(e *UserEntitlement) {
		e.UsageCount = 1
		e.UsageLimit = intPtr(10)
	})
	product := Product{ID: "snappro", TrialType: TrialTime, TrialLimit: 7}
	d := Evaluate(row, product, evalNow)
	if !d.HasAccess || d.Trial == nil || d.Trial.UsageCount == nil {
		t.Fatalf("got %+v, want usage-metered decision despite time-typed product", d)
	}
}

func TestEvaluatePrecedenceOverridesTrialFields(t *testing.T) {
	// An admin grant wins even while stale trial fields linger on the row.
	row := &UserEntitlement{
		Status:     StatusAdminGranted,
		UsageCount: 10,
		UsageLimit: intPtr(10),
	}
	d := Evaluate(row, Product{}, evalNow)
	if !d.HasAccess || d.Status != StatusAdminGranted {
		t.Fatalf("got %+v, want admin_granted access", d)
	}
}
