package documents

import "context"

// DocumentsRepo persists vault documents. Every accessor is scoped by the
// owning user id; there is no cross-user read path.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, id string) (Document, error)
	// ListByUser returns the user's documents, newest first. A non-empty
	// search filters by case-insensitive name substring.
	ListByUser(ctx context.Context, userID, search string, limit, offset int) ([]Document, error)
	// Delete removes the document and returns the deleted row so callers can
	// clean up archived files and publish events.
	Delete(ctx context.Context, userID, id string) (Document, error)
	// DeleteByUser removes all of the user's documents and returns them.
	DeleteByUser(ctx context.Context, userID string) ([]Document, error)
}
