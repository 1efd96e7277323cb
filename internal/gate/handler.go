package gate

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

type Handler struct {
	Registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{Registry: registry}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/session", h.session)
	g.POST("/session/unlock", h.unlock)
}

// session reports the gate decision for the route the client wants to show.
func (h *Handler) session(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	userID := middleware.UserIDFromContext(c)
	if sessionID != "" {
		h.Registry.EnsureSession(c.Request.Context(), sessionID, userID)
	}
	decision := h.Registry.RouteDecision(sessionID, c.Query("route"))
	respond.OK(c, decision)
}

type unlockRequest struct {
	Pin string `json:"pin"`
}

type unlockResponse struct {
	Matched bool  `json:"matched"`
	State   State `json:"state"`
}

func (h *Handler) unlock(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}

	matched, err := h.Registry.SubmitPin(c.Request.Context(), sessionID, req.Pin)
	if errors.Is(err, ErrNoSession) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "session expired", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "gate_unavailable", "could not verify PIN, try again", nil)
		return
	}
	respond.OK(c, unlockResponse{Matched: matched, State: h.Registry.State(sessionID)})
}
