package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	entgin "github.com/PaulFidika/entitlekit/adapters/gin"
	"github.com/PaulFidika/entitlekit/adapters/ginutil"
	"github.com/PaulFidika/entitlekit/admin"
	"github.com/PaulFidika/entitlekit/entitlements"
)

type grantRequest struct {
	UserID    uuid.UUID  `json:"user_id" binding:"required"`
	ProductID string     `json:"product_id" binding:"required"`
	Status    string     `json:"status" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
	Note      string     `json:"note"`
}

func HandleAdminGrantPOST(a *admin.Administrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := entgin.ActorFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "staff_auth_required")
			return
		}
		var req grantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		err := a.GrantAccess(c.Request.Context(), actor, req.UserID, req.ProductID, admin.GrantInput{
			Status:    entitlements.Status(req.Status),
			ExpiresAt: req.ExpiresAt,
			Note:      req.Note,
		})
		if errors.Is(err, entitlements.ErrUnknownProduct) {
			ginutil.NotFound(c, "unknown_product")
			return
		}
		if err != nil {
			ginutil.ServerErr(c, "failed_to_grant")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
