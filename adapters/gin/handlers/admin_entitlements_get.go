package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/admin"
)

func HandleAdminEntitlementsGET(a *admin.Administrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := entgin.ActorFrom(c); !ok {
			ginutil.Unauthorized(c, "staff_auth_required")
			return
		}
		items, err := a.ListEntitlements(c.Request.Context())
		if err != nil {
			ginutil.ServerErr(c, "failed_to_list_entitlements")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	}
}
