package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault-backend/internal/extract"
	"docvault-backend/internal/shared/storage/object"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/shared/util"
)

// Categorizer assigns one of the known categories to document text.
type Categorizer interface {
	Categorize(ctx context.Context, documentText string) (category string, confidence float64, err error)
}

// PrefsReader reports whether the user has auto-categorization enabled.
type PrefsReader interface {
	AutoCategorize(ctx context.Context, userID string) bool
}

// Service owns the document lifecycle: upload, list, download, delete.
type Service struct {
	Repo        DocumentsRepo
	Store       object.ObjectStore // optional archive of the raw upload
	Broker      *Broker
	Categorizer Categorizer // optional
	Prefs       PrefsReader // optional
}

func NewService(repo DocumentsRepo, store object.ObjectStore, broker *Broker, categorizer Categorizer, prefs PrefsReader) *Service {
	return &Service{Repo: repo, Store: store, Broker: broker, Categorizer: categorizer, Prefs: prefs}
}

// UploadInput carries one multipart upload. Text, when set, overrides
// server-side extraction; Category, when set, must be a valid category.
type UploadInput struct {
	FileName string
	MimeType string
	File     io.Reader
	Text     string
	Category string
}

// Upload stores a new document for the user. When no category is given and
// the user has auto-categorization enabled, the document text is classified
// before the record is written; nothing is persisted on failure.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	name, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if in.File == nil {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	data, err := io.ReadAll(in.File)
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	content := in.Text
	if content == "" {
		extracted, err := extract.FromBytes(data, in.MimeType, name)
		if err != nil {
			telemetry.Warn("documents.extract_failed", map[string]any{
				"user_id": userID,
				"name":    name,
				"error":   err.Error(),
			})
		} else {
			content = extracted
		}
	}

	category := strings.TrimSpace(in.Category)
	if category != "" && !ValidCategory(category) {
		return Document{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if category == "" {
		category = string(CategoryOther)
		if s.Categorizer != nil && strings.TrimSpace(content) != "" && s.autoCategorize(ctx, userID) {
			assigned, confidence, err := s.Categorizer.Categorize(ctx, content)
			if err != nil {
				telemetry.Warn("documents.categorize_failed", map[string]any{
					"user_id": userID,
					"name":    name,
					"error":   err.Error(),
				})
			} else {
				category = assigned
				telemetry.Info("documents.categorized", map[string]any{
					"user_id":    userID,
					"name":       name,
					"category":   assigned,
					"confidence": confidence,
				})
			}
		}
	}

	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Category:  Category(category),
		Content:   content,
		Size:      formatSize(len(data)),
		CreatedAt: time.Now().UTC(),
	}

	if s.Store != nil {
		key, _, _, err := s.Store.Save(ctx, userID, name, bytes.NewReader(data))
		if err != nil {
			telemetry.Warn("documents.archive_failed", map[string]any{
				"user_id": userID,
				"name":    name,
				"error":   err.Error(),
			})
		} else {
			doc.FileKey = key
		}
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if s.Store != nil && doc.FileKey != "" {
			_ = s.Store.Delete(ctx, doc.FileKey)
		}
		return Document{}, err
	}

	s.Broker.Publish(Event{Type: EventCreated, Document: doc})
	return doc, nil
}

func (s *Service) autoCategorize(ctx context.Context, userID string) bool {
	if s.Prefs == nil {
		return true
	}
	return s.Prefs.AutoCategorize(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID, search string, limit, offset int) ([]Document, error) {
	return s.Repo.ListByUser(ctx, userID, search, limit, offset)
}

// Download returns the stored text content together with the file name the
// client should save it as. Downloads are always plain text.
func (s *Service) Download(ctx context.Context, userID, id string) (fileName string, content string, err error) {
	doc, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		return "", "", err
	}
	return downloadName(doc.Name), doc.Content, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	doc, err := s.Repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	s.cleanupFile(ctx, doc)
	s.Broker.Publish(Event{Type: EventDeleted, Document: doc})
	return nil
}

// DeleteAll removes every document the user owns. Used by account erasure.
func (s *Service) DeleteAll(ctx context.Context, userID string) (int, error) {
	docs, err := s.Repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		s.cleanupFile(ctx, doc)
		s.Broker.Publish(Event{Type: EventDeleted, Document: doc})
	}
	return len(docs), nil
}

func (s *Service) cleanupFile(ctx context.Context, doc Document) {
	if s.Store == nil || doc.FileKey == "" {
		return
	}
	if err := s.Store.Delete(ctx, doc.FileKey); err != nil {
		telemetry.Warn("documents.file_cleanup_failed", map[string]any{
			"user_id":     doc.UserID,
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
}

func formatSize(bytes int) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}

// downloadName swaps the extension for .txt since downloads carry the
// extracted text, not the original binary.
func downloadName(name string) string {
	base := name
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + ".txt"
}
