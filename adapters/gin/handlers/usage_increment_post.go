package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/entitlements"
)

// HandleUsageIncrementPOST debits one trial credit before a gated action
// runs. A 200 with allowed=false means the trial is spent; the action must
// not proceed.
func HandleUsageIncrementPOST(m *entitlements.Meter) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := entgin.UserID(c)
		if !ok {
			ginutil.Unauthorized(c, "auth_required")
			return
		}
		productID := c.Param("product_id")
		if productID == "" {
			ginutil.BadRequest(c, "missing_product_id")
			return
		}
		res, err := m.IncrementUsage(c.Request.Context(), uid, productID)
		if errors.Is(err, entitlements.ErrInvalidTrialConfiguration) {
			ginutil.BadRequest(c, "not_a_usage_trial")
			return
		}
		if err != nil {
			ginutil.ServerErr(c, "failed_to_increment")
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
