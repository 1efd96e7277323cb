package gate

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

// RequireUnlocked blocks protected API calls while the session is PIN
// locked. The gate's own routes stay reachable so the client can unlock.
func RequireUnlocked(registry *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := middleware.SessionIDFromContext(c)
		if sessionID == "" {
			// Public route; the auth middleware already let it through.
			c.Next()
			return
		}
		if gateExempt(c.Request.URL.Path) {
			c.Next()
			return
		}
		state := registry.State(sessionID)
		if state == StateUnauthenticated {
			// Authenticated session the registry has not seen yet, e.g. a
			// dropped sign-in event. Resolve its policy before deciding.
			userID := middleware.UserIDFromContext(c)
			state = State(registry.EnsureSession(c.Request.Context(), sessionID, userID))
		}
		c.Set("gateState", string(state))
		if state == StatePinRequired {
			respond.Error(c, http.StatusLocked, "pin_required", "unlock with your PIN to continue", nil)
			return
		}
		c.Next()
	}
}

func gateExempt(path string) bool {
	if strings.HasPrefix(path, "/api/v1/session") {
		return true
	}
	return path == "/api/v1/health"
}
