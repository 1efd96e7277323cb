package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/auth"
	"docvault-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	sessionIDKey   = "sessionId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
)

// SessionChecker reports whether a server-side session is still live.
// A token whose session has been revoked (logout, account erasure) is
// rejected even if its signature and expiry are valid.
type SessionChecker interface {
	SessionExists(sessionID string) bool
}

// Auth validates bearer JWTs and stores identity in context.
func Auth(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if isPublicPath(path) {
			// Best effort: a valid token on a public path still sets identity
			// so the session probe can answer for signed-in users.
			attachIdentity(c, sessions)
			c.Next()
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		if sessions != nil && !sessions.SessionExists(claims.Sid) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "session expired", nil)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// attachIdentity parses a bearer token if one is present and live, without
// failing the request when it is absent or invalid.
func attachIdentity(c *gin.Context, sessions SessionChecker) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		return
	}
	if sessions != nil && !sessions.SessionExists(claims.Sid) {
		return
	}
	setClaims(c, claims)
}

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(userIDKey, claims.Sub)
	c.Set(sessionIDKey, claims.Sid)
	if claims.Email != "" {
		c.Set(userEmailKey, claims.Email)
	}
	if claims.Name != "" {
		c.Set(userNameKey, claims.Name)
	}
	if claims.Picture != "" {
		c.Set(userPictureKey, claims.Picture)
	}
}

func isPublicPath(path string) bool {
	if strings.HasPrefix(path, "/api/v1/auth/") {
		return true
	}
	// The session probe answers for anonymous and signed-in clients alike.
	if path == "/api/v1/session" {
		return true
	}
	return path == "/api/v1/health"
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// SessionIDFromContext fetches the session ID set by the auth middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
