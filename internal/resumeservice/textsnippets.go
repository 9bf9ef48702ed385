package resumeservice

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
)

// SnippetKey identifies one text snippet version.
type SnippetKey struct {
	ID      int64
	Version time.Time
}

// String formats k as id@version.
func (k SnippetKey) String() string {
	return fmt.Sprintf("%d@%s", k.ID, k.Version.UTC().Format(time.RFC3339Nano))
}

func getTextSnippet(ctx context.Context, q database.Querier, k SnippetKey) (*models.TextSnippet, error) {
	return models.GetTextSnippet(ctx, q, k.ID, k.Version)
}

func (s *Service) ownedTextSnippet(ctx context.Context, q database.Querier, username string, k SnippetKey) (*models.TextSnippet, error) {
	return ValidateOwnership(ctx, q, username, "Text snippet", k, getTextSnippet)
}

// checkSkillSnippet verifies that a snippet referenced by a skill belongs to
// username. Both halves of the reference must be given together.
func (s *Service) checkSkillSnippet(ctx context.Context, q database.Querier, username string, id *int64, version *time.Time) error {
	if id == nil && version == nil {
		return nil
	}
	if id == nil || version == nil {
		return apperr.BadRequest("textSnippetId and textSnippetVersion must be given together.")
	}
	_, err := s.ownedTextSnippet(ctx, q, username, SnippetKey{ID: *id, Version: *version})
	return err
}

// ListTextSnippets returns the latest version of every snippet of username.
func (s *Service) ListTextSnippets(ctx context.Context, username string) ([]models.TextSnippet, error) {
	return models.GetTextSnippets(ctx, s.db, username)
}

// ListTextSnippetVersions returns the version history of one snippet.
func (s *Service) ListTextSnippetVersions(ctx context.Context, username string, id int64) ([]models.TextSnippet, error) {
	versions, err := models.GetTextSnippetVersions(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, apperr.NotFound("Can not find text snippet with ID %d.", id)
	}
	if versions[0].Owner != username {
		return nil, apperr.Forbidden("Text snippet %d does not belong to user %q.", id, username)
	}
	return versions, nil
}

// ListExperienceTextSnippets returns the bullets of an experience in a
// document, in position order.
func (s *Service) ListExperienceTextSnippets(ctx context.Context, username string, documentID, experienceID int64) ([]models.TextSnippet, error) {
	return listInParent(ctx, s, textSnippetType, username, Parent{DocumentID: documentID, ExperienceID: experienceID})
}

// CreateTextSnippet creates a snippet and appends it to an experience of the
// master document.
func (s *Service) CreateTextSnippet(ctx context.Context, username string, documentID, experienceID int64, in models.NewTextSnippet) (*models.TextSnippet, *models.RelationRow, error) {
	return createSectionItem(ctx, s, textSnippetType, username, Parent{DocumentID: documentID, ExperienceID: experienceID},
		func(ctx context.Context, q database.Querier) (*models.TextSnippet, error) {
			return models.AddTextSnippet(ctx, q, username, in)
		})
}

// AttachTextSnippet appends an existing snippet version to an experience in a
// document.
func (s *Service) AttachTextSnippet(ctx context.Context, username string, documentID, experienceID int64, k SnippetKey) (*models.RelationRow, error) {
	return attachExistingItem(ctx, s, textSnippetType, username, Parent{DocumentID: documentID, ExperienceID: experienceID},
		func(ctx context.Context, q database.Querier) (*models.TextSnippet, error) {
			return s.ownedTextSnippet(ctx, q, username, k)
		})
}

// ReorderTextSnippets sets the order of the bullets of an experience in a
// document.
func (s *Service) ReorderTextSnippets(ctx context.Context, username string, documentID, experienceID int64, ids []int64) ([]models.TextSnippet, error) {
	return reorderSectionItems(ctx, s, textSnippetType, username, Parent{DocumentID: documentID, ExperienceID: experienceID}, ids)
}

// DetachTextSnippet removes a snippet from an experience in a document.
func (s *Service) DetachTextSnippet(ctx context.Context, username string, documentID, experienceID, snippetID int64) error {
	return detachItem(ctx, s, textSnippetType, username, Parent{DocumentID: documentID, ExperienceID: experienceID}, snippetID)
}

// UpdateTextSnippet stores a new version of the snippet identified by k and
// returns it. The version named by k is left untouched.
func (s *Service) UpdateTextSnippet(ctx context.Context, username string, k SnippetKey, u models.TextSnippetUpdate) (*models.TextSnippet, error) {
	var next *models.TextSnippet
	err := s.db.InTx(ctx, func(q database.Querier) error {
		current, err := s.ownedTextSnippet(ctx, q, username, k)
		if err != nil {
			return err
		}
		next, err = current.Update(ctx, q, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// DeleteTextSnippet deletes one version. Deleting a missing version is a
// no-op.
func (s *Service) DeleteTextSnippet(ctx context.Context, username string, k SnippetKey) error {
	return deleteFromDocuments(ctx, s, username, "Text snippet", k, getTextSnippet, documentsWithTextSnippet)
}

func documentsWithTextSnippet(ctx context.Context, q database.Querier, k SnippetKey) ([]int64, error) {
	return models.DocumentsWithTextSnippet(ctx, q, k.ID, k.Version)
}
