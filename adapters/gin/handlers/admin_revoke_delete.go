package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/admin"
	"github.com/PaulFidika/entitlekit/entitlements"
)

func HandleAdminRevokeDELETE(a *admin.Administrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := entgin.ActorFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "staff_auth_required")
			return
		}
		userID, err := uuid.Parse(c.Param("user_id"))
		if err != nil {
			ginutil.BadRequest(c, "invalid_user_id")
			return
		}
		productID := c.Param("product_id")
		if productID == "" {
			ginutil.BadRequest(c, "missing_product_id")
			return
		}
		err = a.RevokeAccess(c.Request.Context(), actor, userID, productID)
		if errors.Is(err, entitlements.ErrNotFound) {
			ginutil.NotFound(c, "entitlement_not_found")
			return
		}
		if err != nil {
			ginutil.ServerErr(c, "failed_to_revoke")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
