package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.DELETE("/account", h.erase)
}

func (h *Handler) erase(c *gin.Context) {
	if err := h.Svc.Erase(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete account", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}
