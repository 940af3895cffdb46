package entgin

import (
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PaulFidika/entitlekit/adapters/ginutil"
)

const ctxActorKey = "entitlements.actor_id"

// StaffAuthConfig configures how admin endpoints establish the acting
// staff identity. At least one of Keyfunc or APIKeyHash must be set.
type StaffAuthConfig struct {
	// Keyfunc verifies staff bearer JWTs (shared secret or public key,
	// injected by the host app). The token's subject is the actor ID and
	// must carry StaffClaim set to true.
	Keyfunc jwt.Keyfunc

	// StaffClaim is the boolean claim marking staff tokens. Default "staff".
	StaffClaim string

	// APIKeyHash is a bcrypt hash of the console API key, for staff
	// tooling that authenticates out-of-band. Requests using it must
	// also send X-Staff-Id with the actor's UUID.
	APIKeyHash string

	// APIKeyHeader defaults to "X-Api-Key".
	APIKeyHeader string
}

// StaffAuth gates admin routes and records the acting staff identity in
// the gin context. Rejections are 401; a verified non-staff token is 403.
func StaffAuth(cfg StaffAuthConfig) gin.HandlerFunc {
	if cfg.StaffClaim == "" {
		cfg.StaffClaim = "staff"
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-Api-Key"
	}
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); cfg.Keyfunc != nil && strings.HasPrefix(auth, "Bearer ") {
			actor, ok := verifyStaffToken(strings.TrimPrefix(auth, "Bearer "), cfg)
			if !ok {
				ginutil.Forbidden(c, "staff_token_invalid")
				return
			}
			c.Set(ctxActorKey, actor)
			c.Next()
			return
		}

		if key := c.GetHeader(cfg.APIKeyHeader); cfg.APIKeyHash != "" && key != "" {
			if bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(key)) != nil {
				ginutil.Unauthorized(c, "api_key_invalid")
				return
			}
			actor, err := uuid.Parse(c.GetHeader("X-Staff-Id"))
			if err != nil || actor == uuid.Nil {
				ginutil.BadRequest(c, "missing_staff_id")
				return
			}
			c.Set(ctxActorKey, actor)
			c.Next()
			return
		}

		ginutil.Unauthorized(c, "staff_auth_required")
	}
}

func verifyStaffToken(raw string, cfg StaffAuthConfig) (uuid.UUID, bool) {
	token, err := jwt.Parse(raw, cfg.Keyfunc)
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	if isStaff, _ := claims[cfg.StaffClaim].(bool); !isStaff {
		return uuid.Nil, false
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, false
	}
	actor, err := uuid.Parse(sub)
	if err != nil || actor == uuid.Nil {
		return uuid.Nil, false
	}
	return actor, true
}

// ActorFrom returns the staff actor set by StaffAuth.
func ActorFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxActorKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
