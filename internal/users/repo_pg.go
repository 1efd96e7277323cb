package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const userColumns = "id, email, display_name, picture_url, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	var displayName, pictureURL, passwordHash sql.NullString
	err := row.Scan(&u.ID, &u.Email, &displayName, &pictureURL, &passwordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.DisplayName = displayName.String
	u.PictureURL = pictureURL.String
	u.PasswordHash = passwordHash.String
	return u, nil
}

func (r *PGRepo) Create(ctx context.Context, u User) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, picture_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
	`, u.ID, strings.ToLower(u.Email), u.DisplayName, u.PictureURL, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *PGRepo) Update(ctx context.Context, u User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		SET display_name = NULLIF($2, ''), picture_url = NULLIF($3, ''), password_hash = NULLIF($4, ''), updated_at = $5
		WHERE id = $1
	`, u.ID, u.DisplayName, u.PictureURL, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

var _ UsersRepo = (*PGRepo)(nil)
