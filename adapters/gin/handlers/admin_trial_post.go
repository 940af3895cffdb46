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

type trialRequest struct {
	UserID        uuid.UUID  `json:"user_id" binding:"required"`
	ProductID     string     `json:"product_id" binding:"required"`
	TrialStartsAt time.Time  `json:"trial_starts_at"`
	TrialEndsAt   *time.Time `json:"trial_ends_at"`
	UsageLimit    *int       `json:"usage_limit"`
	Note          string     `json:"note"`
}

func HandleAdminTrialPOST(a *admin.Administrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := entgin.ActorFrom(c)
		if !ok {
			ginutil.Unauthorized(c, "staff_auth_required")
			return
		}
		var req trialRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		err := a.GrantTrial(c.Request.Context(), actor, req.UserID, req.ProductID, admin.TrialInput{
			TrialStartsAt: req.TrialStartsAt,
			TrialEndsAt:   req.TrialEndsAt,
			UsageLimit:    req.UsageLimit,
			Note:          req.Note,
		})
		if errors.Is(err, entitlements.ErrUnknownProduct) {
			ginutil.NotFound(c, "unknown_product")
			return
		}
		if errors.Is(err, entitlements.ErrInvalidTrialConfiguration) {
			ginutil.BadRequest(c, "trial_type_mismatch")
			return
		}
		if err != nil {
			ginutil.ServerErr(c, "failed_to_grant_trial")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
