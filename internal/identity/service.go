package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"docvault-backend/internal/shared/auth"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/users"
)

// Auth failure modes, named after the credential problem they describe.
// Handlers map these onto user-facing messages.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailInUse        = errors.New("email already in use")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrWeakPassword      = errors.New("weak password")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

const (
	minPasswordLen = 6
	resetTokenTTL  = 15 * time.Minute
)

// AuthResult is what a successful sign-in produces.
type AuthResult struct {
	Token     string
	SessionID string
	User      users.User
}

type resetToken struct {
	userID    string
	expiresAt time.Time
}

// Service owns credentials, server-side sessions, and the auth event stream.
// Sessions live in memory; restarting the server signs everyone out.
type Service struct {
	Users  *users.Service
	Broker *Broker

	mu          sync.RWMutex
	sessions    map[string]Session
	resetTokens map[string]resetToken
}

func NewService(usersSvc *users.Service, broker *Broker) *Service {
	return &Service{
		Users:       usersSvc,
		Broker:      broker,
		sessions:    make(map[string]Session),
		resetTokens: make(map[string]resetToken),
	}
}

// SignUp creates an account with an email and password, then signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return AuthResult{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return AuthResult{}, ErrWeakPassword
	}
	if _, err := s.Users.Repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailInUse
	} else if !errors.Is(err, users.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, err
	}
	now := time.Now().UTC()
	u := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Repo.Create(ctx, u); err != nil {
		return AuthResult{}, err
	}
	telemetry.Info("identity.signup", map[string]any{"user_id": u.ID})
	return s.establishSession(u)
}

// SignIn verifies an email/password pair. All credential failures collapse
// into ErrInvalidCredential so callers cannot probe which part was wrong.
func (s *Service) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.Repo.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return AuthResult{}, ErrInvalidCredential
	}
	if err != nil {
		return AuthResult{}, err
	}
	if u.PasswordHash == "" {
		// Google-only account; there is no password to check.
		return AuthResult{}, ErrInvalidCredential
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrInvalidCredential
	}
	return s.establishSession(u)
}

// EstablishSession creates a session and token for an already verified user.
// The Google callback uses this after the provider has vouched for them.
func (s *Service) EstablishSession(u users.User) (AuthResult, error) {
	return s.establishSession(u)
}

func (s *Service) establishSession(u users.User) (AuthResult, error) {
	session := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: time.Now().UTC(),
	}
	token, err := auth.SignJWT(auth.Claims{
		Sub:     u.ID,
		Sid:     session.ID,
		Email:   u.Email,
		Name:    u.DisplayName,
		Picture: u.PictureURL,
	})
	if err != nil {
		return AuthResult{}, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.Broker.Publish(Event{
		Type: EventSignedIn,
		Identity: Identity{
			UserID:    u.ID,
			SessionID: session.ID,
			Email:     u.Email,
			Name:      u.DisplayName,
			Picture:   u.PictureURL,
		},
	})
	telemetry.Info("identity.signin", map[string]any{"user_id": u.ID, "session_id": session.ID})
	return AuthResult{Token: token, SessionID: session.ID, User: u}, nil
}

// SignOut revokes one session. Unknown session ids are a no-op so logout
// stays idempotent.
func (s *Service) SignOut(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.Broker.Publish(Event{
		Type:     EventSignedOut,
		Identity: Identity{UserID: session.UserID, SessionID: session.ID},
	})
	telemetry.Info("identity.signout", map[string]any{"user_id": session.UserID, "session_id": session.ID})
}

// RevokeUser signs out every session the user has. Used by account erasure.
func (s *Service) RevokeUser(userID string) {
	s.mu.Lock()
	revoked := make([]Session, 0)
	for id, session := range s.sessions {
		if session.UserID == userID {
			revoked = append(revoked, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, session := range revoked {
		s.Broker.Publish(Event{
			Type:     EventSignedOut,
			Identity: Identity{UserID: session.UserID, SessionID: session.ID},
		})
	}
}

// SessionExists implements the auth middleware's session check.
func (s *Service) SessionExists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// SendPasswordReset issues a short-lived reset token for the account.
// Without an outbound mailer the token is logged for operator delivery.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	u, err := s.Users.Repo.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.resetTokens[token] = resetToken{userID: u.ID, expiresAt: time.Now().Add(resetTokenTTL)}
	s.mu.Unlock()

	telemetry.Info("identity.password_reset_issued", map[string]any{
		"user_id": u.ID,
		"token":   token,
	})
	return nil
}

// ResetPassword consumes a reset token and sets a new password. All of the
// user's sessions are revoked so stolen tokens die with the old password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	s.mu.Lock()
	entry, ok := s.resetTokens[token]
	if ok {
		delete(s.resetTokens, token)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return ErrInvalidResetToken
	}

	u, err := s.Users.Repo.GetByID(ctx, entry.userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	if err := s.Users.Repo.Update(ctx, u); err != nil {
		return err
	}
	s.RevokeUser(u.ID)
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}
