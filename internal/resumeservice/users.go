package resumeservice

import (
	"context"
	"log/slog"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/auth"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
)

var errBadCredentials = apperr.Unauthorized("Invalid username/password.")

// Register creates a user and its master document and returns an auth token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", err
	}
	err = s.db.InTx(ctx, func(q database.Querier) error {
		if _, err := models.AddUser(ctx, q, username, hash); err != nil {
			return err
		}
		_, err := models.AddDocument(ctx, q, models.NewDocument{
			DocumentName: models.MasterDocumentName,
			Owner:        username,
			IsMaster:     true,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("user registered", slog.String("username", username))
	return s.tokens.Issue(username)
}

// SignIn checks credentials and returns an auth token.
func (s *Service) SignIn(ctx context.Context, username, password string) (string, error) {
	user, err := models.GetUser(ctx, s.db, username)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return "", errBadCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(user.Password, password) {
		s.logger.Warn("sign in failed", slog.String("username", username))
		return "", errBadCredentials
	}
	return s.tokens.Issue(username)
}

// UserUpdate is the body accepted when updating an account.
type UserUpdate struct {
	OldPassword *string `json:"oldPassword,omitempty"`
	NewPassword *string `json:"newPassword,omitempty"`
}

// UpdateUser changes the password of username. The old password must be
// supplied and correct.
func (s *Service) UpdateUser(ctx context.Context, username string, u UserUpdate) (*models.User, error) {
	if u.NewPassword == nil {
		return models.GetUser(ctx, s.db, username)
	}
	if u.OldPassword == nil || *u.OldPassword == "" {
		return nil, apperr.BadRequest("Old password is required if setting new password.")
	}
	hash, err := auth.HashPassword(*u.NewPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if user, err = models.GetUser(ctx, q, username); err != nil {
			return err
		}
		if !auth.CheckPassword(user.Password, *u.OldPassword) {
			return errBadCredentials
		}
		return user.UpdatePassword(ctx, q, hash)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes username and everything it owns. Deleting a missing user
// is a no-op.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	return s.db.InTx(ctx, func(q database.Querier) error {
		_, err := deleteOwned(ctx, q, username, "User", username, models.GetUser, nil)
		return err
	})
}

// GetContactInfo returns the contact details of username.
func (s *Service) GetContactInfo(ctx context.Context, username string) (*models.ContactInfo, error) {
	return models.GetContactInfo(ctx, s.db, username)
}

// PutContactInfo creates or replaces the contact info of username.
func (s *Service) PutContactInfo(ctx context.Context, username string, in models.ContactInfoInput) (*models.ContactInfo, error) {
	return models.PutContactInfo(ctx, s.db, username, in)
}
