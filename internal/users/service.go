package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Repo UsersRepo
}

func NewService(repo UsersRepo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromGoogle returns the account matching the Google profile's email,
// creating it on first sign-in. Name and picture refresh on every sign-in.
func (s *Service) UpsertFromGoogle(ctx context.Context, email, name, picture string) (User, error) {
	existing, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		changed := false
		if name != "" && existing.DisplayName != name {
			existing.DisplayName = name
			changed = true
		}
		if picture != "" && existing.PictureURL != picture {
			existing.PictureURL = picture
			changed = true
		}
		if changed {
			existing.UpdatedAt = time.Now().UTC()
			if err := s.Repo.Update(ctx, existing); err != nil {
				return User{}, err
			}
		}
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	now := time.Now().UTC()
	u := User{
		ID:          uuid.NewString(),
		Email:       strings.ToLower(email),
		DisplayName: name,
		PictureURL:  picture,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id, displayName string) (User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.DisplayName = strings.TrimSpace(displayName)
	u.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}
