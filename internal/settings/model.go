package settings

import (
	"errors"
	"time"
)

// Settings are per-user preferences plus the optional PIN lock. The PIN is
// kept only as a bcrypt hash.
type Settings struct {
	UserID         string
	PINHash        string
	Theme          string
	AutoCategorize bool
	UpdatedAt      time.Time
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Defaults returns the settings a user has before saving anything.
func Defaults(userID string) Settings {
	return Settings{
		UserID:         userID,
		Theme:          ThemeLight,
		AutoCategorize: true,
	}
}

var (
	ErrNotFound    = errors.New("settings not found")
	ErrInvalidPin  = errors.New("PIN must be exactly 4 digits")
	ErrPinMismatch = errors.New("PINs do not match")
	ErrBadTheme    = errors.New("unknown theme")
)
