package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PaulFidika/entitlekit/entitlements"
)

// Event is one administrative entitlement change, for the audit trail.
type Event struct {
	ActorID   uuid.UUID
	UserID    uuid.UUID
	ProductID string
	Action    string // "grant", "grant_trial", "revoke", "bulk_expire"
	To        entitlements.Status
	Note      string
	At        time.Time
}

// AuditLogger records entitlement changes to an external sink (e.g., ClickHouse).
// Implementations should be non-blocking and best-effort.
type AuditLogger interface {
	LogEntitlementChange(ctx context.Context, ev Event) error
}

// LogrusAudit writes audit events to a structured logger. The default sink
// when nothing richer is wired.
type LogrusAudit struct {
	Log logrus.FieldLogger
}

func (a LogrusAudit) LogEntitlementChange(ctx context.Context, ev Event) error {
	_ = ctx
	if a.Log == nil {
		return nil
	}
	a.Log.WithFields(logrus.Fields{
		"actor_id":   ev.ActorID,
		"user_id":    ev.UserID,
		"product_id": ev.ProductID,
		"action":     ev.Action,
		"to_status":  ev.To,
		"note":       ev.Note,
		"at":         ev.At.UTC().Format(time.RFC3339),
	}).Info("entitlement change")
	return nil
}
