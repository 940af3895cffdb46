package entitlements

import "errors"

var (
	// ErrInvalidTrialConfiguration reports a trial-shape mismatch: a usage
	// increment against a row with no usage limit, or a grant whose fields
	// disagree with the product's trial type. Callers should surface it,
	// not retry.
	ErrInvalidTrialConfiguration = errors.New("entitlements: invalid trial configuration")

	// ErrNotFound reports a missing entitlement row where one is required
	// (admin mutations). Gate checks never see it; absence is the locked
	// decision there.
	ErrNotFound = errors.New("entitlements: entitlement not found")

	// ErrUnknownProduct reports a product ID absent from the catalog.
	ErrUnknownProduct = errors.New("entitlements: unknown product")
)

// Stable reason strings rendered by UI banners. Keep values in sync with
// frontend copies of these codes.
const (
	ReasonCancelled        = "subscription cancelled"
	ReasonAdminGrantEnded  = "admin-granted access ended"
	ReasonPeriodEnded      = "subscription period ended"
	ReasonTrialExhausted   = "trial uses exhausted"
	ReasonTrialEnded       = "trial period ended"
	ReasonTrialMisconfig   = "trial misconfigured"
	ReasonStoreUnavailable = "store unavailable"
	ReasonUnknownProduct   = "unknown product"
)
