package resumeservice

import (
	"context"
	"log/slog"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/sse"
)

// ListDocuments returns the documents owned by username.
func (s *Service) ListDocuments(ctx context.Context, username string) ([]models.Document, error) {
	return models.GetDocuments(ctx, s.db, username)
}

// CreateDocument creates a non-master document.
func (s *Service) CreateDocument(ctx context.Context, username string, in models.NewDocument) (*models.Document, error) {
	in.Owner = username
	in.IsMaster = false
	doc, err := models.AddDocument(ctx, s.db, in)
	if err != nil {
		return nil, err
	}
	s.events.PublishDocumentEvent(username, sse.KindCreated, doc.ID)
	return doc, nil
}

// GetDocument returns a document with all of its ordered content.
func (s *Service) GetDocument(ctx context.Context, username string, id int64) (*models.DocumentContent, error) {
	var content *models.DocumentContent
	err := s.db.InTx(ctx, func(q database.Querier) error {
		doc, err := s.ownedDocument(ctx, q, username, id)
		if err != nil {
			return err
		}
		content, err = models.GetDocumentContent(ctx, q, doc)
		return err
	})
	return content, err
}

// UpdateDocument applies u. The master document only accepts a new name.
func (s *Service) UpdateDocument(ctx context.Context, username string, id int64, u models.DocumentUpdate) (*models.Document, error) {
	var doc *models.Document
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if doc, err = s.ownedDocument(ctx, q, username, id); err != nil {
			return err
		}
		if doc.IsMaster && !u.Empty() && !u.NameOnly() {
			s.logger.Warn("master document update refused",
				slog.String("username", username),
				slog.Int64("document_id", id))
			return apperr.BadRequest("Only document name can be updated for primary resume templates.")
		}
		return doc.Update(ctx, q, u)
	})
	if err != nil {
		return nil, err
	}
	if !u.Empty() {
		s.events.PublishDocumentEvent(username, sse.KindUpdated, doc.ID)
	}
	return doc, nil
}

// DeleteDocument deletes a non-master document. Deleting a missing document
// is a no-op.
func (s *Service) DeleteDocument(ctx context.Context, username string, id int64) error {
	var deleted *models.Document
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		deleted, err = deleteOwned(ctx, q, username, "Document", id, models.GetDocument,
			func(d *models.Document) error {
				if d.IsMaster {
					s.logger.Warn("master document delete refused",
						slog.String("username", username),
						slog.Int64("document_id", id))
					return apperr.Forbidden("Can not delete primary resume template.")
				}
				return nil
			})
		return err
	})
	if err != nil {
		return err
	}
	if deleted != nil {
		s.events.PublishDocumentEvent(username, sse.KindDeleted, id)
	}
	return nil
}

// AttachSection appends a section to a document.
func (s *Service) AttachSection(ctx context.Context, username string, documentID, sectionID int64) (*models.RelationRow, error) {
	return attachExistingItem(ctx, s, sectionType, username, Parent{DocumentID: documentID},
		func(ctx context.Context, q database.Querier) (*models.Section, error) {
			return models.GetSection(ctx, q, sectionID)
		})
}

// ReorderSections sets the order of a document's sections.
func (s *Service) ReorderSections(ctx context.Context, username string, documentID int64, sectionIDs []int64) ([]models.Section, error) {
	return reorderSectionItems(ctx, s, sectionType, username, Parent{DocumentID: documentID}, sectionIDs)
}

// DetachSection removes a section from a document.
func (s *Service) DetachSection(ctx context.Context, username string, documentID, sectionID int64) error {
	return detachItem(ctx, s, sectionType, username, Parent{DocumentID: documentID}, sectionID)
}

// ListSections returns every global section. The list is cached.
func (s *Service) ListSections(ctx context.Context) ([]models.Section, error) {
	const key = "sections"
	if cached, ok := s.sections.Get(key); ok {
		return cached.([]models.Section), nil
	}
	sections, err := models.GetSections(ctx, s.db)
	if err != nil {
		return nil, err
	}
	s.sections.SetDefault(key, sections)
	return sections, nil
}
