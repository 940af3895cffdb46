package entitlements

import (
	"time"

	"github.com/google/uuid"
)

// TrialType describes how a product meters its free trial.
type TrialType string

const (
	TrialNone  TrialType = "none"
	TrialUsage TrialType = "usage"
	TrialTime  TrialType = "time"
)

// Status is the coarse access state recorded on an entitlement row.
//
// Stored status is authoritative only for states that require an explicit
// transition (cancelled, admin_granted, active). Time- and usage-dependent
// states are derived at read time by Evaluate; a stored "trial" may already
// be expired in reality without any write having happened.
type Status string

const (
	StatusActive       Status = "active"
	StatusTrial        Status = "trial"
	StatusAdminGranted Status = "admin_granted"
	StatusExpired      Status = "expired"
	StatusCancelled    Status = "cancelled"

	// StatusLocked is never persisted; it is the derived state for
	// "no entitlement row exists".
	StatusLocked Status = "locked"
)

// Product is a purchasable (or internal) feature offering. Read-only
// reference data from the engine's point of view.
type Product struct {
	ID          string `json:"id"` // stable slug, e.g. "ai_concierge"
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`

	// Prices in cents; nil for non-commercial/internal products.
	PriceMonthly *int64 `json:"price_monthly,omitempty"`
	PriceAnnual  *int64 `json:"price_annual,omitempty"`

	TrialType TrialType `json:"trial_type"`
	// Max uses (usage trials) or max days (time trials). Ignored for
	// TrialNone.
	TrialLimit int `json:"trial_limit,omitempty"`

	// Inactive products are hidden from catalog browsing; existing
	// entitlements against them remain valid.
	IsActive  bool `json:"is_active"`
	SortOrder int  `json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserEntitlement is the durable record of one user's relationship to one
// product. Exactly one row exists per (user, product); absence of a row
// means locked.
type UserEntitlement struct {
	UserID    uuid.UUID `json:"user_id"`
	ProductID string    `json:"product_id"`

	Status Status `json:"status"`

	// Time-metered trials.
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`

	// Usage-metered trials. UsageCount starts at 0 and only increases;
	// the store's conditional increment keeps it <= *UsageLimit.
	UsageCount int  `json:"usage_count"`
	UsageLimit *int `json:"usage_limit,omitempty"`

	// Fixed end for admin grants, or end of the current billing period
	// for active subscriptions. Nil means indefinite.
	AccessEndsAt *time.Time `json:"access_ends_at,omitempty"`

	// Audit trail. GrantedBy is nil for self-service trials.
	GrantedBy *uuid.UUID `json:"granted_by,omitempty"`
	Note      string     `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrialInfo carries the trial progress relevant to a decision: usage
// counters for usage trials, days remaining for time trials.
type TrialInfo struct {
	UsageCount    *int `json:"usage_count,omitempty"`
	UsageLimit    *int `json:"usage_limit,omitempty"`
	DaysRemaining *int `json:"days_remaining,omitempty"`
}

// AccessDecision is the read-time verdict for one (user, product) pair.
// Feature gates act on this and nothing else.
type AccessDecision struct {
	HasAccess bool       `json:"has_access"`
	Status    Status     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Trial     *TrialInfo `json:"trial,omitempty"`
}

// UserRef is the minimal display join for staff tooling. Not a core
// concern; carried so admin listings can show who a row belongs to.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username,omitempty"`
}
