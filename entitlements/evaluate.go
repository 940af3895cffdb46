package entitlements

import "time"

// Evaluate derives the access decision for one (user, product) pair at a
// given instant. Pure: no I/O, no mutation, deterministic for a fixed now.
//
// The stored status is trusted only for explicitly-transitioned states
// (cancelled, admin_granted, active). Trial rows are re-derived from their
// own counters and timestamps every time, because those expire without any
// write occurring. Trial rows are judged by whichever metering fields the
// row itself carries, never by the product's current trial type, so a
// catalog policy change does not retroactively break trials issued under
// the old policy.
//
// e may be nil (no row), which is the locked state.
func Evaluate(e *UserEntitlement, p Product, now time.Time) AccessDecision {
	if e == nil {
		return AccessDecision{HasAccess: false, Status: StatusLocked}
	}

	switch e.Status {
	case StatusCancelled:
		return AccessDecision{HasAccess: false, Status: StatusCancelled, Reason: ReasonCancelled}

	case StatusAdminGranted:
		if e.AccessEndsAt != nil && now.After(*e.AccessEndsAt) {
			return AccessDecision{HasAccess: false, Status: StatusExpired, Reason: ReasonAdminGrantEnded}
		}
		return AccessDecision{HasAccess: true, Status: StatusAdminGranted}

	case StatusActive:
		if e.AccessEndsAt != nil && now.After(*e.AccessEndsAt) {
			return AccessDecision{HasAccess: false, Status: StatusExpired, Reason: ReasonPeriodEnded}
		}
		return AccessDecision{HasAccess: true, Status: StatusActive}

	case StatusTrial:
		return evaluateTrial(e, now)

	case StatusExpired:
		return AccessDecision{HasAccess: false, Status: StatusExpired}

	default:
		// Unknown stored status: fail closed.
		return AccessDecision{HasAccess: false, Status: StatusLocked}
	}
}

// evaluateTrial re-derives a trial row's real state from its counters and
// timestamps. A row may carry both metering fields; access requires passing
// every populated check, usage first.
func evaluateTrial(e *UserEntitlement, now time.Time) AccessDecision {
	if e.UsageLimit == nil && e.TrialEndsAt == nil {
		// Malformed row: a trial with no metering fields. Data
		// integrity fallback, fail closed.
		return AccessDecision{HasAccess: false, Status: StatusExpired, Reason: ReasonTrialMisconfig}
	}

	if e.UsageLimit != nil {
		count, limit := e.UsageCount, *e.UsageLimit
		if count >= limit {
			return AccessDecision{
				HasAccess: false,
				Status:    StatusExpired,
				Reason:    ReasonTrialExhausted,
				Trial:     &TrialInfo{UsageCount: &count, UsageLimit: &limit},
			}
		}
		if e.TrialEndsAt == nil || !now.After(*e.TrialEndsAt) {
			return AccessDecision{
				HasAccess: true,
				Status:    StatusTrial,
				Trial:     &TrialInfo{UsageCount: &count, UsageLimit: &limit},
			}
		}
	}

	if now.After(*e.TrialEndsAt) {
		zero := 0
		return AccessDecision{
			HasAccess: false,
			Status:    StatusExpired,
			Reason:    ReasonTrialEnded,
			Trial:     &TrialInfo{DaysRemaining: &zero},
		}
	}
	days := daysRemaining(*e.TrialEndsAt, now)
	return AccessDecision{
		HasAccess: true,
		Status:    StatusTrial,
		Trial:     &TrialInfo{DaysRemaining: &days},
	}
}

// daysRemaining is ceil((until - now) / 24h), floored at zero so it hits 0
// exactly at expiry and never goes negative.
func daysRemaining(until, now time.Time) int {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	return days
}
