package settings

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"docvault-backend/internal/gate"
)

type Service struct {
	Repo SettingsRepo
}

func NewService(repo SettingsRepo) *Service {
	return &Service{Repo: repo}
}

// Get returns the user's settings, falling back to defaults for users who
// never saved any.
func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	settings, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Defaults(userID), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// UpdatePrefs applies partial preference changes. Nil fields keep their
// current value.
func (s *Service) UpdatePrefs(ctx context.Context, userID string, theme *string, autoCategorize *bool) (Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	if theme != nil {
		if *theme != ThemeLight && *theme != ThemeDark {
			return Settings{}, ErrBadTheme
		}
		settings.Theme = *theme
	}
	if autoCategorize != nil {
		settings.AutoCategorize = *autoCategorize
	}
	settings.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Upsert(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// SetPIN stores a new 4-digit PIN as a bcrypt hash. The raw PIN is never
// persisted. The change applies to future sessions; the current session's
// gate state is untouched.
func (s *Service) SetPIN(ctx context.Context, userID, pin, confirm string) error {
	if !valid4Digit(pin) {
		return ErrInvalidPin
	}
	if pin != confirm {
		return ErrPinMismatch
	}
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	settings.PINHash = string(hash)
	settings.UpdatedAt = time.Now().UTC()
	return s.Repo.Upsert(ctx, settings)
}

// RemovePIN clears the PIN lock.
func (s *Service) RemovePIN(ctx context.Context, userID string) error {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	settings.PINHash = ""
	settings.UpdatedAt = time.Now().UTC()
	return s.Repo.Upsert(ctx, settings)
}

// Erase drops the user's settings row. Used by account erasure.
func (s *Service) Erase(ctx context.Context, userID string) error {
	return s.Repo.Delete(ctx, userID)
}

// ReadLockPolicy implements the gate's policy source. A missing row means
// no PIN; a real storage failure propagates so the gate can fail closed.
func (s *Service) ReadLockPolicy(ctx context.Context, userID string) (gate.LockPolicy, error) {
	settings, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return gate.LockPolicy{}, nil
	}
	if err != nil {
		return gate.LockPolicy{}, err
	}
	return gate.LockPolicy{Hash: settings.PINHash}, nil
}

// AutoCategorize implements the documents upload preference check.
// Errors default to enabled, matching the default preference.
func (s *Service) AutoCategorize(ctx context.Context, userID string) bool {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return true
	}
	return settings.AutoCategorize
}

func valid4Digit(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, ch := range pin {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

var _ gate.PolicyReader = (*Service)(nil)
