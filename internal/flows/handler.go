package flows

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/documents"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc  *Service
	Docs documents.DocumentsRepo
}

func NewHandler(svc *Service, docs documents.DocumentsRepo) *Handler {
	return &Handler{Svc: svc, Docs: docs}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/ai/categorize", h.categorize)
	g.POST("/documents/:id/qa", h.qa)
}

type categorizeRequest struct {
	DocumentText string `json:"documentText"`
}

func (h *Handler) categorize(c *gin.Context) {
	var req categorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	result, err := h.Svc.Categorize(c.Request.Context(), req.DocumentText)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "categorization_failed", ErrCategorization.Error(), nil)
		return
	}
	respond.OK(c, result)
}

type qaRequest struct {
	Question string `json:"question"`
}

// qa answers a question about one stored document. The model only ever sees
// the document's extracted text, never the raw file.
func (h *Handler) qa(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	c.Set("documentId", c.Param("id"))
	doc, err := h.Docs.GetByID(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, documents.ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	result, err := h.Svc.Answer(c.Request.Context(), doc.Content, req.Question)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "qa_failed", ErrQA.Error(), nil)
		return
	}
	respond.OK(c, result)
}
