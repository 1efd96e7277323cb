package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/auth"
	"docvault-backend/internal/shared/server/respond"
	"docvault-backend/internal/users"
)

// GateResolver reports the session's gate state so a sign-in response can
// tell the client whether a PIN screen comes next.
type GateResolver interface {
	EnsureSession(ctx context.Context, sessionID, userID string) string
}

type Handler struct {
	Svc  *Service
	Gate GateResolver
}

func NewHandler(svc *Service, gate GateResolver) *Handler {
	return &Handler{Svc: svc, Gate: gate}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/auth/signup", h.signup)
	g.POST("/auth/login", h.login)
	g.POST("/auth/forgot-password", h.forgotPassword)
	g.POST("/auth/reset-password", h.resetPassword)
	g.POST("/auth/logout", h.logout)
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type authResponse struct {
	Token     string `json:"token"`
	GateState string `json:"gateState,omitempty"`
	User      struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
		PictureURL  string `json:"pictureUrl,omitempty"`
	} `json:"user"`
}

func (h *Handler) toAuthResponse(ctx context.Context, result AuthResult) authResponse {
	var resp authResponse
	resp.Token = result.Token
	resp.User.ID = result.User.ID
	resp.User.Email = result.User.Email
	resp.User.DisplayName = result.User.DisplayName
	resp.User.PictureURL = result.User.PictureURL
	if h.Gate != nil {
		resp.GateState = h.Gate.EnsureSession(ctx, result.SessionID, result.User.ID)
	}
	return resp
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	result, err := h.Svc.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, h.toAuthResponse(c.Request.Context(), result))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	result, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	respond.OK(c, h.toAuthResponse(c.Request.Context(), result))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if err := h.Svc.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondAuthError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Password reset email sent!"})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondAuthError(c, err)
		return
	}
	respond.OK(c, gin.H{"message": "Password updated. Please log in again."})
}

// logout verifies the token itself since auth routes bypass the middleware.
// A bad or already-revoked token still gets a 200; logout is idempotent.
func (h *Handler) logout(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	if token != "" {
		if claims, err := auth.VerifyJWT(token); err == nil {
			h.Svc.SignOut(claims.Sid)
		}
	}
	respond.OK(c, gin.H{"loggedOut": true})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		respond.Error(c, http.StatusUnauthorized, "invalid_credential", "Invalid credentials. Please try again.", nil)
	case errors.Is(err, ErrUserNotFound), errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "user_not_found", "No account found with this email.", nil)
	case errors.Is(err, ErrEmailInUse):
		respond.Error(c, http.StatusConflict, "email_in_use", "This email is already registered.", nil)
	case errors.Is(err, ErrInvalidEmail):
		respond.Error(c, http.StatusBadRequest, "invalid_email", "Please enter a valid email address.", nil)
	case errors.Is(err, ErrWeakPassword):
		respond.Error(c, http.StatusBadRequest, "weak_password", "Password should be at least 6 characters.", nil)
	case errors.Is(err, ErrInvalidResetToken):
		respond.Error(c, http.StatusBadRequest, "invalid_reset_token", "This reset link is invalid or has expired.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "An unexpected error occurred. Please try again.", nil)
	}
}
