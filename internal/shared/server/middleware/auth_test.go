package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/auth"
)

type fakeSessions struct {
	live map[string]bool
}

func (f *fakeSessions) SessionExists(sessionID string) bool {
	return f.live[sessionID]
}

func newAuthRouter(sessions SessionChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(sessions))
	r.GET("/api/v1/documents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c), "sessionId": SessionIDFromContext(c)})
	})
	r.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/v1/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserIDFromContext(c)})
	})
	return r
}

func TestAuthRejectsMissingToken(t *testing.T) {
	r := newAuthRouter(&fakeSessions{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthSkipsPublicPaths(t *testing.T) {
	r := newAuthRouter(&fakeSessions{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public path, got %d", resp.Code)
	}
}

func TestSessionProbeIsPublicButSeesIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthRouter(&fakeSessions{live: map[string]bool{"session-1": true}})

	// Anonymous probe succeeds with no identity.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous probe, got %d", resp.Code)
	}

	// A live token attaches identity on the same route.
	token, err := auth.SignJWT(auth.Claims{Sub: "user-1", Sid: "session-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "user-1") {
		t.Fatalf("expected identity on probe, got %d %s", resp.Code, resp.Body.String())
	}

	// A revoked token is ignored rather than rejected.
	revoked, err := auth.SignJWT(auth.Claims{Sub: "user-1", Sid: "session-gone"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+revoked)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || strings.Contains(resp.Body.String(), "user-1") {
		t.Fatalf("revoked token should probe as anonymous, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestAuthAcceptsValidTokenWithLiveSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := auth.SignJWT(auth.Claims{Sub: "user-1", Sid: "session-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := newAuthRouter(&fakeSessions{live: map[string]bool{"session-1": true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := auth.SignJWT(auth.Claims{Sub: "user-1", Sid: "session-gone"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	r := newAuthRouter(&fakeSessions{live: map[string]bool{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", resp.Code)
	}
}
