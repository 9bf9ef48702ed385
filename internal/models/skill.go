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

// Skill is a named skill, optionally described by a text snippet version.
type Skill struct {
	ID                 int64      `json:"id"`
	Owner              string     `json:"owner"`
	Name               string     `json:"name"`
	TextSnippetID      *int64     `json:"textSnippetId"`
	TextSnippetVersion *time.Time `json:"textSnippetVersion"`
}

func (s *Skill) OwnerName() string { return s.Owner }
func (s *Skill) ItemID() int64     { return s.ID }

type NewSkill struct {
	Name               string     `json:"name"`
	TextSnippetID      *int64     `json:"textSnippetId,omitempty"`
	TextSnippetVersion *time.Time `json:"textSnippetVersion,omitempty"`
}

// SkillUpdate lists the updatable skill columns. The snippet reference is
// replaced as a pair.
type SkillUpdate struct {
	Name               *string    `json:"name,omitempty"`
	TextSnippetID      *int64     `json:"textSnippetId,omitempty"`
	TextSnippetVersion *time.Time `json:"textSnippetVersion,omitempty"`
}

const skillColumns = `id, owner, name, text_snippet_id, text_snippet_version`

func scanSkill(s rowScanner) (*Skill, error) {
	var (
		sk        Skill
		snippetID sql.NullInt64
		version   dbTime
	)
	if err := s.Scan(&sk.ID, &sk.Owner, &sk.Name, &snippetID, &version); err != nil {
		return nil, err
	}
	if snippetID.Valid {
		id := snippetID.Int64
		sk.TextSnippetID = &id
	}
	sk.TextSnippetVersion = timePtr(version)
	return &sk, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func skillSnippetMissing(id *int64) error {
	return apperr.NotFound("Can not find text snippet with ID %d.", *id)
}

// AddSkill inserts a skill owned by owner.
func AddSkill(ctx context.Context, q database.Querier, owner string, in NewSkill) (*Skill, error) {
	sk, err := scanSkill(q.QueryRowContext(ctx,
		`INSERT INTO skills (owner, name, text_snippet_id, text_snippet_version)
		 VALUES (?, ?, ?, ?)
		 RETURNING `+skillColumns,
		owner, in.Name, nullableID(in.TextSnippetID), nullableTime(in.TextSnippetVersion)))
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrForeignKeyViolation) && in.TextSnippetID != nil {
			return nil, skillSnippetMissing(in.TextSnippetID)
		}
		return nil, fmt.Errorf("models: add skill: %w", err)
	}
	return sk, nil
}

// GetSkill returns the skill with the given id.
func GetSkill(ctx context.Context, q database.Querier, id int64) (*Skill, error) {
	sk, err := scanSkill(q.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find skill with ID %d.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get skill: %w", err)
	}
	return sk, nil
}

// GetSkills returns every skill owned by owner.
func GetSkills(ctx context.Context, q database.Querier, owner string) ([]Skill, error) {
	return querySkills(ctx, q, `SELECT `+skillColumns+` FROM skills WHERE owner = ? ORDER BY id`, owner)
}

// GetSkillsInDocument returns the skills attached to a document in position
// order.
func GetSkillsInDocument(ctx context.Context, q database.Querier, documentID int64) ([]Skill, error) {
	return querySkills(ctx, q,
		`SELECT s.id, s.owner, s.name, s.text_snippet_id, s.text_snippet_version
		   FROM skills s
		   JOIN documents_x_skills dxs ON dxs.skill_id = s.id
		  WHERE dxs.document_id = ?
		  ORDER BY dxs.position`, documentID)
}

func querySkills(ctx context.Context, q database.Querier, query string, args ...any) ([]Skill, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list skills: %w", err)
	}
	defer rows.Close()

	out := []Skill{}
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan skill: %w", err)
		}
		out = append(out, *sk)
	}
	return out, rows.Err()
}

func (s *Skill) Update(ctx context.Context, q database.Querier, u SkillUpdate) error {
	var set updateSet
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.TextSnippetID != nil || u.TextSnippetVersion != nil {
		set.add("text_snippet_id", nullableID(u.TextSnippetID))
		set.add("text_snippet_version", nullableTime(u.TextSnippetVersion))
	}
	if set.empty() {
		return nil
	}

	updated, err := scanSkill(q.QueryRowContext(ctx,
		`UPDATE skills SET `+set.clause()+` WHERE id = ? RETURNING `+skillColumns,
		append(set.args, s.ID)...))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("Skill with ID %d was not found.", s.ID)
	}
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrForeignKeyViolation) && u.TextSnippetID != nil {
			return skillSnippetMissing(u.TextSnippetID)
		}
		return fmt.Errorf("models: update skill: %w", err)
	}
	*s = *updated
	return nil
}

func (s *Skill) Delete(ctx context.Context, q database.Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, s.ID); err != nil {
		return fmt.Errorf("models: delete skill: %w", err)
	}
	return nil
}
