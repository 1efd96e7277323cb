package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo is the Postgres-backed DocumentsRepo.
type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const docColumns = "id, user_id, name, category, content, size, file_key, created_at"

func scanDocument(row interface{ Scan(dest ...any) error }) (Document, error) {
	var d Document
	var fileKey sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Category, &d.Content, &d.Size, &fileKey, &d.CreatedAt)
	if err != nil {
		return Document{}, err
	}
	d.FileKey = fileKey.String
	return d, nil
}

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, name, category, content, size, file_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`, doc.ID, doc.UserID, doc.Name, string(doc.Category), doc.Content, doc.Size, doc.FileKey, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+docColumns+` FROM documents WHERE user_id = $1 AND id = $2
	`, userID, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID, search string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + docColumns + ` FROM documents WHERE user_id = $1`
	args := []any{userID}
	if strings.TrimSpace(search) != "" {
		query += ` AND name ILIKE $2`
		args = append(args, "%"+strings.TrimSpace(search)+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, userID, id string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
		DELETE FROM documents WHERE user_id = $1 AND id = $2
		RETURNING `+docColumns+`
	`, userID, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("delete document: %w", err)
	}
	return doc, nil
}

func (r *PGRepo) DeleteByUser(ctx context.Context, userID string) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, `
		DELETE FROM documents WHERE user_id = $1
		RETURNING `+docColumns+`
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete user documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

var _ DocumentsRepo = (*PGRepo)(nil)
