package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// Section is a global, pre-seeded resume section such as "Education".
type Section struct {
	ID          int64  `json:"id"`
	SectionName string `json:"sectionName"`
}

// Sections are global, so Section implements Item but not Owned.
func (s *Section) ItemID() int64 { return s.ID }

func scanSection(s rowScanner) (*Section, error) {
	var sec Section
	if err := s.Scan(&sec.ID, &sec.SectionName); err != nil {
		return nil, err
	}
	return &sec, nil
}

// GetSection returns the section with the given id.
func GetSection(ctx context.Context, q database.Querier, id int64) (*Section, error) {
	sec, err := scanSection(q.QueryRowContext(ctx, `SELECT id, section_name FROM sections WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find section with ID %d.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get section: %w", err)
	}
	return sec, nil
}

// GetSections returns every section ordered by id.
func GetSections(ctx context.Context, q database.Querier) ([]Section, error) {
	return querySections(ctx, q, `SELECT id, section_name FROM sections ORDER BY id`)
}

// GetSectionsInDocument returns the sections attached to a document in
// position order.
func GetSectionsInDocument(ctx context.Context, q database.Querier, documentID int64) ([]Section, error) {
	return querySections(ctx, q,
		`SELECT s.id, s.section_name
		   FROM sections s
		   JOIN documents_x_sections dxs ON dxs.section_id = s.id
		  WHERE dxs.document_id = ?
		  ORDER BY dxs.position`, documentID)
}

func querySections(ctx context.Context, q database.Querier, query string, args ...any) ([]Section, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list sections: %w", err)
	}
	defer rows.Close()

	out := []Section{}
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan section: %w", err)
		}
		out = append(out, *sec)
	}
	return out, rows.Err()
}
