package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/admin"
)

// HandleAdminExpireStalePOST runs the reconciliation sweep on demand from
// the staff console. Safe to repeat; already-reconciled rows are skipped.
func HandleAdminExpireStalePOST(a *admin.Administrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := entgin.ActorFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "staff_auth_required")
			return
		}
		n, err := a.BulkExpireStaleTrials(c.Request.Context(), actor)
		if err != nil {
			ginutil.ServerErr(c, "failed_to_expire")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "expired": n})
	}
}
