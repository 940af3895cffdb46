// Package entgin adapts the entitlement engine to gin: a feature-gate
// middleware for protected routes and helpers for reading the caller's
// identity. Route handlers live in the handlers subpackage.
package entgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/gate"
)

// UserID reads the authenticated end-user ID the host's auth middleware
// stored under "auth.user_id" (string or uuid.UUID).
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("auth.user_id")
	if !ok {
		return uuid.Nil, false
	}
	switch t := v.(type) {
	case uuid.UUID:
		return t, t != uuid.Nil
	case string:
		id, err := uuid.Parse(t)
		return id, err == nil && id != uuid.Nil
	default:
		return uuid.Nil, false
	}
}

// RequireEntitlement gates a route group on access to one product. Denied
// callers get 402 with the full decision so the UI can render the right
// banner (trial exhausted vs cancelled vs locked).
func RequireEntitlement(f *gate.Facade, productID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok {
			ginutil.Unauthorized(c, "auth_required")
			return
		}
		decision := f.GetAccess(c.Request.Context(), uid, productID)
		if !decision.HasAccess {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":    "entitlement_required",
				"product":  productID,
				"decision": decision,
			})
			return
		}
		c.Next()
	}
}
