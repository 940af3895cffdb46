package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/gate"
)

// HandleAccessGET answers "what should the UI show this user about this
// product". Never errors to the client; store trouble comes back as a
// locked decision.
func HandleAccessGET(f *gate.Facade) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, f.GetAccess(c.Request.Context(), uid, productID))
	}
}

// HandleAccessMapGET returns one decision per catalog product, for
// dashboards rendering many gates at once.
func HandleAccessMapGET(f *gate.Facade) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := entgin.UserID(c)
		if !ok {
			ginutil.Unauthorized(c, "auth_required")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": f.GetAccessMap(c.Request.Context(), uid)})
	}
}
