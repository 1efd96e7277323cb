package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

type UsersRepo interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}
