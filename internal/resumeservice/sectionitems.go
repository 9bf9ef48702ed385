package resumeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
	"github.com/starford/resumectl/internal/models"
	"github.com/starford/resumectl/internal/sse"
)

// SectionType binds one kind of attachable item to its relation. E is the
// record type and P its pointer.
type SectionType[E any, P interface {
	*E
	models.Item
}] struct {
	Noun     string // singular, lower case, e.g. "education"
	Relation *models.Relation
	// ListIn returns the items attached to a relation parent, in position order.
	ListIn func(ctx context.Context, q database.Querier, parentID int64) ([]E, error)
}

// Title returns the capitalised noun.
func (st SectionType[E, P]) Title() string {
	return strings.ToUpper(st.Noun[:1]) + st.Noun[1:]
}

var (
	sectionType = SectionType[models.Section, *models.Section]{
		Noun:     "section",
		Relation: models.DocumentSections,
		ListIn:   models.GetSectionsInDocument,
	}
	educationType = SectionType[models.Education, *models.Education]{
		Noun:     "education",
		Relation: models.DocumentEducations,
		ListIn:   models.GetEducationsInDocument,
	}
	experienceType = SectionType[models.Experience, *models.Experience]{
		Noun:     "experience",
		Relation: models.DocumentExperiences,
		ListIn:   models.GetExperiencesInDocument,
	}
	skillType = SectionType[models.Skill, *models.Skill]{
		Noun:     "skill",
		Relation: models.DocumentSkills,
		ListIn:   models.GetSkillsInDocument,
	}
	textSnippetType = SectionType[models.TextSnippet, *models.TextSnippet]{
		Noun:     "text snippet",
		Relation: models.ExperienceTextSnippets,
		ListIn:   models.GetTextSnippetsInExperience,
	}
)

// Parent identifies where items are attached: a document, or an experience
// inside a document when ExperienceID is set.
type Parent struct {
	DocumentID   int64
	ExperienceID int64
}

// resolveParent checks document ownership and returns the document together
// with the relation parent id.
func (s *Service) resolveParent(ctx context.Context, q database.Querier, username string, p Parent) (*models.Document, int64, error) {
	doc, err := s.ownedDocument(ctx, q, username, p.DocumentID)
	if err != nil {
		return nil, 0, err
	}
	if p.ExperienceID == 0 {
		return doc, doc.ID, nil
	}
	id, err := models.DocumentExperienceID(ctx, q, doc.ID, p.ExperienceID)
	if err != nil {
		return nil, 0, err
	}
	return doc, id, nil
}

func nextPosition(ctx context.Context, q database.Querier, rel *models.Relation, parentID int64) (int, error) {
	rows, err := rel.GetAll(ctx, q, parentID)
	if err != nil {
		return 0, err
	}
	return models.LastPosition(rows) + 1, nil
}

func relationRow(parentID int64, item models.Item, position int) models.RelationRow {
	row := models.RelationRow{ParentID: parentID, ItemID: item.ItemID(), Position: position}
	if v, ok := item.(models.Versioned); ok {
		row.ItemVersion = v.VersionTime()
	}
	return row
}

// createSectionItem creates an item with create and attaches it to the end of
// the parent. Items can only be authored against the master document.
func createSectionItem[E any, P interface {
	*E
	models.Item
}](
	ctx context.Context, s *Service, st SectionType[E, P], username string, parent Parent,
	create func(context.Context, database.Querier) (P, error),
) (P, *models.RelationRow, error) {
	var (
		item P
		row  *models.RelationRow
	)
	err := s.db.InTx(ctx, func(q database.Querier) error {
		doc, parentID, err := s.resolveParent(ctx, q, username, parent)
		if err != nil {
			return err
		}
		if !doc.IsMaster {
			s.logger.Warn("section item refused on non-master document",
				slog.String("kind", st.Noun),
				slog.String("username", username),
				slog.Int64("document_id", doc.ID))
			return apperr.Forbidden("%ss can only be added to the primary resume template.", st.Title())
		}

		if item, err = create(ctx, q); err != nil {
			return err
		}
		pos, err := nextPosition(ctx, q, st.Relation, parentID)
		if err != nil {
			return err
		}
		row, err = st.Relation.Add(ctx, q, relationRow(parentID, item, pos))
		return err
	})
	if err != nil {
		var zero P
		return zero, nil, err
	}
	s.events.PublishDocumentEvent(username, sse.KindUpdated, parent.DocumentID)
	return item, row, nil
}

// attachExistingItem attaches an item loaded by get to the end of the
// parent. get is expected to check item ownership.
func attachExistingItem[E any, P interface {
	*E
	models.Item
}](
	ctx context.Context, s *Service, st SectionType[E, P], username string, parent Parent,
	get func(context.Context, database.Querier) (P, error),
) (*models.RelationRow, error) {
	var row *models.RelationRow
	err := s.db.InTx(ctx, func(q database.Querier) error {
		item, err := get(ctx, q)
		if err != nil {
			return err
		}
		_, parentID, err := s.resolveParent(ctx, q, username, parent)
		if err != nil {
			return err
		}
		pos, err := nextPosition(ctx, q, st.Relation, parentID)
		if err != nil {
			return err
		}
		row, err = st.Relation.Add(ctx, q, relationRow(parentID, item, pos))
		if errors.Is(err, database.ErrUniqueViolation) {
			s.logger.Warn("relationship already exists",
				slog.String("kind", st.Noun),
				slog.String("username", username),
				slog.Int64("item_id", item.ItemID()))
			return apperr.BadRequest("Can not add %s to document, as it already exists.", st.Noun)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishDocumentEvent(username, sse.KindUpdated, parent.DocumentID)
	return row, nil
}

// reorderSectionItems sets the order of a parent's items to itemIDs, which
// must be exactly the ids currently attached.
func reorderSectionItems[E any, P interface {
	*E
	models.Item
}](
	ctx context.Context, s *Service, st SectionType[E, P], username string, parent Parent, itemIDs []int64,
) ([]E, error) {
	var items []E
	err := s.db.InTx(ctx, func(q database.Querier) error {
		_, parentID, err := s.resolveParent(ctx, q, username, parent)
		if err != nil {
			return err
		}
		rows, err := st.Relation.GetAll(ctx, q, parentID)
		if err != nil {
			return err
		}
		if !samePermutation(rows, itemIDs) {
			s.logger.Warn("reorder ids do not match attached items",
				slog.String("kind", st.Noun),
				slog.String("username", username),
				slog.String("ids", fmt.Sprint(itemIDs)))
			return apperr.BadRequest("Exactly all %ss need to be included when updating their positions in a document.", st.Noun)
		}
		if err := st.Relation.UpdateAllPositions(ctx, q, parentID, itemIDs); err != nil {
			return err
		}
		items, err = st.ListIn(ctx, q, parentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.PublishDocumentEvent(username, sse.KindUpdated, parent.DocumentID)
	return items, nil
}

// samePermutation reports whether ids lists each attached item exactly once.
func samePermutation(rows []models.RelationRow, ids []int64) bool {
	if len(rows) != len(ids) {
		return false
	}
	attached := make(map[int64]bool, len(rows))
	for _, r := range rows {
		attached[r.ItemID] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !attached[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

// detachItem removes an item from a parent. Detaching an item that is not
// attached is not an error.
func detachItem[E any, P interface {
	*E
	models.Item
}](
	ctx context.Context, s *Service, st SectionType[E, P], username string, parent Parent, itemID int64,
) error {
	err := s.db.InTx(ctx, func(q database.Querier) error {
		_, parentID, err := s.resolveParent(ctx, q, username, parent)
		if err != nil {
			return err
		}
		return st.Relation.Delete(ctx, q, parentID, itemID)
	})
	if err != nil {
		return err
	}
	s.events.PublishDocumentEvent(username, sse.KindUpdated, parent.DocumentID)
	return nil
}

// notifyDocuments publishes an update for each document in ids.
func (s *Service) notifyDocuments(username string, ids []int64) {
	for _, id := range ids {
		s.events.PublishDocumentEvent(username, sse.KindUpdated, id)
	}
}

// deleteFromDocuments deletes an owned item and, once committed, publishes an
// update for every document the item was attached to.
func deleteFromDocuments[K any, T deletable](
	ctx context.Context, s *Service, username, kind string, key K,
	get func(context.Context, database.Querier, K) (T, error),
	documentsOf func(context.Context, database.Querier, K) ([]int64, error),
) error {
	var docIDs []int64
	err := s.db.InTx(ctx, func(q database.Querier) error {
		var err error
		if docIDs, err = documentsOf(ctx, q, key); err != nil {
			return err
		}
		_, err = deleteOwned(ctx, q, username, kind, key, get, nil)
		return err
	})
	if err != nil {
		return err
	}
	s.notifyDocuments(username, docIDs)
	return nil
}

// listInParent returns a parent's items in position order.
func listInParent[E any, P interface {
	*E
	models.Item
}](
	ctx context.Context, s *Service, st SectionType[E, P], username string, parent Parent,
) ([]E, error) {
	_, parentID, err := s.resolveParent(ctx, s.db, username, parent)
	if err != nil {
		return nil, err
	}
	return st.ListIn(ctx, s.db, parentID)
}
