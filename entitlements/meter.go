package entitlements

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UsageResult reports whether one trial credit was debited and the counter
// state after the call.
type UsageResult struct {
	Allowed    bool `json:"allowed"`
	UsageCount int  `json:"usage_count"`
	UsageLimit int  `json:"usage_limit"`
}

// Meter debits usage-trial credits. The actual check-and-increment is a
// single conditional store operation, so two racing calls can never both
// spend the last credit; everything around it here is classification and
// bookkeeping.
type Meter struct {
	store Store
	inval CacheInvalidator
	log   logrus.FieldLogger
}

// NewMeter builds a Meter. inval may be nil when no facade cache is in
// play (tests, CLIs); log may be nil.
func NewMeter(store Store, inval CacheInvalidator, log logrus.FieldLogger) *Meter {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Meter{store: store, inval: inval, log: log}
}

// IncrementUsage spends one trial credit for (user, product).
//
// Fail-closed rules: a missing row or a row not in trial status yields
// {Allowed: false} without creating or touching anything. A trial row with
// no usage limit (time-metered) is a caller bug and returns
// ErrInvalidTrialConfiguration. Limit-already-met is an expected outcome,
// reported as {Allowed: false}, never as an error.
func (m *Meter) IncrementUsage(ctx context.Context, userID uuid.UUID, productID string) (UsageResult, error) {
	rows, err := m.store.GetEntitlements(ctx, userID)
	if err != nil {
		return UsageResult{}, err
	}
	var row *UserEntitlement
	for i := range rows {
		if rows[i].ProductID == productID {
			row = &rows[i]
			break
		}
	}
	if row == nil || row.Status != StatusTrial {
		return UsageResult{Allowed: false}, nil
	}
	if row.UsageLimit == nil {
		return UsageResult{}, ErrInvalidTrialConfiguration
	}

	// The pre-read above only classifies; this is the sole guard against
	// concurrent overspend.
	res, err := m.store.ConditionalIncrementUsage(ctx, userID, productID)
	if err != nil {
		return UsageResult{}, err
	}
	if !res.Success {
		return UsageResult{Allowed: false, UsageCount: row.UsageCount, UsageLimit: *row.UsageLimit}, nil
	}

	if m.inval != nil {
		m.inval.Invalidate(ctx, userID)
	}
	m.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"product_id":  productID,
		"usage_count": res.NewCount,
		"usage_limit": res.UsageLimit,
	}).Debug("trial credit spent")

	return UsageResult{Allowed: true, UsageCount: res.NewCount, UsageLimit: res.UsageLimit}, nil
}
