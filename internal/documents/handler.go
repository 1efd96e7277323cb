package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

// maxUploadBytes bounds a single multipart upload.
const maxUploadBytes = 25 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/documents", h.upload)
	g.GET("/documents", h.list)
	g.GET("/documents/watch", h.watch)
	g.GET("/documents/:id", h.get)
	g.GET("/documents/:id/download", h.download)
	g.DELETE("/documents/:id", h.delete)
}

type documentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	CreatedAt string `json:"createdAt"`
	Content   string `json:"content,omitempty"`
}

func toResponse(doc Document, includeContent bool) documentResponse {
	resp := documentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		Category:  string(doc.Category),
		Size:      doc.Size,
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
	}
	if includeContent {
		resp.Content = doc.Content
	}
	return resp
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "could not read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, UploadInput{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		File:     file,
		Text:     c.PostForm("text"),
		Category: c.PostForm("category"),
	})
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(doc, true))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Svc.List(c.Request.Context(), userID, c.Query("search"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	items := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toResponse(doc, false))
	}
	respond.OK(c, gin.H{"documents": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Set("documentId", c.Param("id"))
	doc, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	respond.OK(c, toResponse(doc, true))
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Set("documentId", c.Param("id"))
	name, content, err := h.Svc.Download(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to download document", nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Set("documentId", c.Param("id"))
	err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

// watch streams document list changes to the client as server-sent events.
// The stream stays open until the client disconnects.
func (h *Handler) watch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	events, cancel := h.Svc.Broker.Subscribe(userID)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), toResponse(ev.Document, false))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
