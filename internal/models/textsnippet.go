package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// TextSnippet is one version of a piece of text, e.g. an experience bullet.
// Versions of the same snippet share ID and are chained through Parent.
type TextSnippet struct {
	ID      int64      `json:"id"`
	Version time.Time  `json:"version"`
	Owner   string     `json:"owner"`
	Parent  *time.Time `json:"parent"`
	Type    string     `json:"type"`
	Content string     `json:"content"`
}

func (t *TextSnippet) OwnerName() string { return t.Owner }
func (t *TextSnippet) ItemID() int64     { return t.ID }

func (t *TextSnippet) VersionTime() time.Time { return t.Version }

type NewTextSnippet struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// TextSnippetUpdate carries the fields a new version may change.
type TextSnippetUpdate struct {
	Type    *string `json:"type,omitempty"`
	Content *string `json:"content,omitempty"`
}

const textSnippetColumns = `id, version, owner, parent, type, content`

func scanTextSnippet(s rowScanner) (*TextSnippet, error) {
	var (
		t               TextSnippet
		version, parent dbTime
	)
	if err := s.Scan(&t.ID, &version, &t.Owner, &parent, &t.Type, &t.Content); err != nil {
		return nil, err
	}
	t.Version = version.Time
	t.Parent = timePtr(parent)
	return &t, nil
}

// AddTextSnippet inserts the first version of a new snippet.
func AddTextSnippet(ctx context.Context, q database.Querier, owner string, in NewTextSnippet) (*TextSnippet, error) {
	t, err := scanTextSnippet(q.QueryRowContext(ctx,
		`INSERT INTO text_snippets (id, version, owner, parent, type, content)
		 VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM text_snippets), ?, ?, NULL, ?, ?)
		 RETURNING `+textSnippetColumns,
		now(), owner, in.Type, in.Content))
	if err != nil {
		return nil, fmt.Errorf("models: add text snippet: %w", database.Translate(err))
	}
	return t, nil
}

// GetTextSnippet returns one version of a snippet.
func GetTextSnippet(ctx context.Context, q database.Querier, id int64, version time.Time) (*TextSnippet, error) {
	t, err := scanTextSnippet(q.QueryRowContext(ctx,
		`SELECT `+textSnippetColumns+` FROM text_snippets WHERE id = ? AND version = ?`, id, version.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find text snippet with ID %d and version %s.",
			id, version.UTC().Format(time.RFC3339Nano))
	}
	if err != nil {
		return nil, fmt.Errorf("models: get text snippet: %w", err)
	}
	return t, nil
}

// GetTextSnippets returns the latest version of every snippet owned by owner.
func GetTextSnippets(ctx context.Context, q database.Querier, owner string) ([]TextSnippet, error) {
	return queryTextSnippets(ctx, q,
		`SELECT t.id, t.version, t.owner, t.parent, t.type, t.content
		   FROM text_snippets t
		  WHERE t.owner = ?
		    AND t.version = (SELECT MAX(version) FROM text_snippets WHERE id = t.id)
		  ORDER BY t.id`, owner)
}

// GetTextSnippetVersions returns every version of a snippet, oldest first.
func GetTextSnippetVersions(ctx context.Context, q database.Querier, id int64) ([]TextSnippet, error) {
	return queryTextSnippets(ctx, q,
		`SELECT `+textSnippetColumns+` FROM text_snippets WHERE id = ? ORDER BY version`, id)
}

// GetTextSnippetsInExperience returns the snippet versions attached under a
// documents_x_experiences row in position order.
func GetTextSnippetsInExperience(ctx context.Context, q database.Querier, documentExperienceID int64) ([]TextSnippet, error) {
	return queryTextSnippets(ctx, q,
		`SELECT t.id, t.version, t.owner, t.parent, t.type, t.content
		   FROM text_snippets t
		   JOIN experiences_x_text_snippets ets
		     ON ets.text_snippet_id = t.id AND ets.text_snippet_version = t.version
		  WHERE ets.document_x_experience_id = ?
		  ORDER BY ets.position`, documentExperienceID)
}

// DocumentsWithTextSnippet returns the documents that list this snippet
// version under one of their experiences.
func DocumentsWithTextSnippet(ctx context.Context, q database.Querier, id int64, version time.Time) ([]int64, error) {
	return queryIDs(ctx, q, "experiences_x_text_snippets",
		`SELECT DISTINCT dxe.document_id
		   FROM experiences_x_text_snippets xts
		   JOIN documents_x_experiences dxe ON dxe.id = xts.document_x_experience_id
		  WHERE xts.text_snippet_id = ? AND xts.text_snippet_version = ?
		  ORDER BY dxe.document_id`, id, version.UTC())
}

func queryTextSnippets(ctx context.Context, q database.Querier, query string, args ...any) ([]TextSnippet, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list text snippets: %w", err)
	}
	defer rows.Close()

	out := []TextSnippet{}
	for rows.Next() {
		t, err := scanTextSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan text snippet: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update never modifies t. It inserts and returns a new version of the
// snippet whose parent is t's version; fields missing from u are carried over.
func (t *TextSnippet) Update(ctx context.Context, q database.Querier, u TextSnippetUpdate) (*TextSnippet, error) {
	typ, content := t.Type, t.Content
	if u.Type != nil {
		typ = *u.Type
	}
	if u.Content != nil {
		content = *u.Content
	}

	version := now()
	if !version.After(t.Version) {
		version = t.Version.Add(time.Microsecond)
	}

	next, err := scanTextSnippet(q.QueryRowContext(ctx,
		`INSERT INTO text_snippets (id, version, owner, parent, type, content)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+textSnippetColumns,
		t.ID, version, t.Owner, t.Version.UTC(), typ, content))
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, apperr.Conflict("Text snippet with ID %d was updated concurrently.", t.ID)
		}
		return nil, fmt.Errorf("models: update text snippet: %w", err)
	}
	return next, nil
}

// Delete removes this version. A child version pointing at it has its parent
// cleared so the rest of the chain survives.
func (t *TextSnippet) Delete(ctx context.Context, q database.Querier) error {
	v := t.Version.UTC()
	if _, err := q.ExecContext(ctx,
		`UPDATE text_snippets SET parent = NULL WHERE id = ? AND parent = ?`, t.ID, v); err != nil {
		return fmt.Errorf("models: detach text snippet child: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM text_snippets WHERE id = ? AND version = ?`, t.ID, v); err != nil {
		return fmt.Errorf("models: delete text snippet: %w", err)
	}
	return nil
}
