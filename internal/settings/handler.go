package settings

import (
	"errors"
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
	g.GET("/settings", h.get)
	g.PUT("/settings", h.update)
	g.PUT("/settings/pin", h.setPin)
	g.DELETE("/settings/pin", h.removePin)
}

type settingsResponse struct {
	Theme          string `json:"theme"`
	AutoCategorize bool   `json:"autoCategorize"`
	PinEnabled     bool   `json:"pinEnabled"`
}

func toResponse(s Settings) settingsResponse {
	return settingsResponse{
		Theme:          s.Theme,
		AutoCategorize: s.AutoCategorize,
		PinEnabled:     s.PINHash != "",
	}
}

func (h *Handler) get(c *gin.Context) {
	s, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load settings", nil)
		return
	}
	respond.OK(c, toResponse(s))
}

type updateRequest struct {
	Theme          *string `json:"theme"`
	AutoCategorize *bool   `json:"autoCategorize"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	s, err := h.Svc.UpdatePrefs(c.Request.Context(), middleware.UserIDFromContext(c), req.Theme, req.AutoCategorize)
	if errors.Is(err, ErrBadTheme) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", ErrBadTheme.Error(), nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save settings", nil)
		return
	}
	respond.OK(c, toResponse(s))
}

type setPinRequest struct {
	Pin     string `json:"pin"`
	Confirm string `json:"confirmPin"`
}

func (h *Handler) setPin(c *gin.Context) {
	var req setPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	err := h.Svc.SetPIN(c.Request.Context(), middleware.UserIDFromContext(c), req.Pin, req.Confirm)
	if errors.Is(err, ErrInvalidPin) || errors.Is(err, ErrPinMismatch) {
		respond.Error(c, http.StatusBadRequest, "invalid_pin", err.Error(), nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save PIN", nil)
		return
	}
	respond.OK(c, gin.H{"pinEnabled": true})
}

func (h *Handler) removePin(c *gin.Context) {
	if err := h.Svc.RemovePIN(c.Request.Context(), middleware.UserIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to remove PIN", nil)
		return
	}
	respond.OK(c, gin.H{"pinEnabled": false})
}
