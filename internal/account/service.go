package account

import (
	"context"

	"docvault-backend/internal/documents"
	"docvault-backend/internal/identity"
	"docvault-backend/internal/settings"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/users"
)

// Service erases an account: documents and archived files, settings, the
// user row, and every live session.
type Service struct {
	Users     *users.Service
	Documents *documents.Service
	Settings  *settings.Service
	Identity  *identity.Service
}

func NewService(usersSvc *users.Service, docsSvc *documents.Service, settingsSvc *settings.Service, identitySvc *identity.Service) *Service {
	return &Service{Users: usersSvc, Documents: docsSvc, Settings: settingsSvc, Identity: identitySvc}
}

// Erase removes all user data. Sessions are revoked last so the caller's
// token stays valid while the deletion runs.
func (s *Service) Erase(ctx context.Context, userID string) error {
	deleted, err := s.Documents.DeleteAll(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.Settings.Erase(ctx, userID); err != nil {
		return err
	}
	if err := s.Users.Repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.Identity.RevokeUser(userID)

	telemetry.Info("account.erased", map[string]any{
		"user_id":           userID,
		"documents_deleted": deleted,
	})
	return nil
}
