package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Settings, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, pin_hash, theme, auto_categorize, updated_at
		FROM user_settings WHERE user_id = $1
	`, userID)

	var s Settings
	var pinHash sql.NullString
	err := row.Scan(&s.UserID, &pinHash, &s.Theme, &s.AutoCategorize, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s.PINHash = pinHash.String
	return s, nil
}

func (r *PGRepo) Upsert(ctx context.Context, s Settings) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, pin_hash, theme, auto_categorize, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET pin_hash = NULLIF($2, ''), theme = $3, auto_categorize = $4, updated_at = $5
	`, s.UserID, s.PINHash, s.Theme, s.AutoCategorize, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}

var _ SettingsRepo = (*PGRepo)(nil)
