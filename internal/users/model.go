package users

import "time"

// User is an account record. PasswordHash is empty for accounts created
// through Google sign-in.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PictureURL   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
