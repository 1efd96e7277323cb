package users

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
	g.GET("/me", h.me)
	g.PATCH("/me", h.updateMe)
}

type profileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

func toProfile(u User) profileResponse {
	return profileResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PictureURL:  u.PictureURL,
	}
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
		return
	}
	respond.OK(c, toProfile(u))
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *Handler) updateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), req.DisplayName)
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		return
	}
	respond.OK(c, toProfile(u))
}
