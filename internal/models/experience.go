package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// Experience is a job or role authored by a user. A nil EndDate means the
// role is current.
type Experience struct {
	ID           int64  `json:"id"`
	Owner        string `json:"owner"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
	StartDate    Date   `json:"startDate"`
	EndDate      *Date  `json:"endDate"`
}

func (e *Experience) OwnerName() string { return e.Owner }
func (e *Experience) ItemID() int64     { return e.ID }

type NewExperience struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
	StartDate    Date   `json:"startDate"`
	EndDate      *Date  `json:"endDate,omitempty"`
}

// ExperienceUpdate lists the updatable experience columns.
type ExperienceUpdate struct {
	Title        *string `json:"title,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Location     *string `json:"location,omitempty"`
	StartDate    *Date   `json:"startDate,omitempty"`
	EndDate      *Date   `json:"endDate,omitempty"`
	// ClearEndDate marks the experience as current.
	ClearEndDate bool `json:"clearEndDate,omitempty"`
}

const experienceColumns = `id, owner, title, organization, location, start_date, end_date`

func scanExperience(s rowScanner) (*Experience, error) {
	var (
		e   Experience
		end nullDate
	)
	if err := s.Scan(&e.ID, &e.Owner, &e.Title, &e.Organization, &e.Location, &e.StartDate, &end); err != nil {
		return nil, err
	}
	e.EndDate = datePtr(end)
	return &e, nil
}

// AddExperience inserts an experience owned by owner.
func AddExperience(ctx context.Context, q database.Querier, owner string, in NewExperience) (*Experience, error) {
	e, err := scanExperience(q.QueryRowContext(ctx,
		`INSERT INTO experiences (owner, title, organization, location, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+experienceColumns,
		owner, in.Title, in.Organization, in.Location, in.StartDate, nullableDate(in.EndDate)))
	if err != nil {
		return nil, fmt.Errorf("models: add experience: %w", database.Translate(err))
	}
	return e, nil
}

// GetExperience returns the experience with the given id.
func GetExperience(ctx context.Context, q database.Querier, id int64) (*Experience, error) {
	e, err := scanExperience(q.QueryRowContext(ctx,
		`SELECT `+experienceColumns+` FROM experiences WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find experience with ID %d.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get experience: %w", err)
	}
	return e, nil
}

// GetExperiences returns every experience owned by owner.
func GetExperiences(ctx context.Context, q database.Querier, owner string) ([]Experience, error) {
	return queryExperiences(ctx, q, `SELECT `+experienceColumns+` FROM experiences WHERE owner = ? ORDER BY id`, owner)
}

// GetExperiencesInDocument returns the experiences attached to a document in
// position order.
func GetExperiencesInDocument(ctx context.Context, q database.Querier, documentID int64) ([]Experience, error) {
	return queryExperiences(ctx, q,
		`SELECT e.id, e.owner, e.title, e.organization, e.location, e.start_date, e.end_date
		   FROM experiences e
		   JOIN documents_x_experiences dxe ON dxe.experience_id = e.id
		  WHERE dxe.document_id = ?
		  ORDER BY dxe.position`, documentID)
}

func queryExperiences(ctx context.Context, q database.Querier, query string, args ...any) ([]Experience, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list experiences: %w", err)
	}
	defer rows.Close()

	out := []Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan experience: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update applies u and refreshes e. The merged start and end dates must form
// a valid range.
func (e *Experience) Update(ctx context.Context, q database.Querier, u ExperienceUpdate) error {
	start, end := e.StartDate, e.EndDate
	if u.StartDate != nil {
		start = *u.StartDate
	}
	switch {
	case u.ClearEndDate:
		end = nil
	case u.EndDate != nil:
		end = u.EndDate
	}
	if err := checkDateRange("Experience", start, end); err != nil {
		return err
	}

	var set updateSet
	if u.Title != nil {
		set.add("title", *u.Title)
	}
	if u.Organization != nil {
		set.add("organization", *u.Organization)
	}
	if u.Location != nil {
		set.add("location", *u.Location)
	}
	if u.StartDate != nil {
		set.add("start_date", *u.StartDate)
	}
	switch {
	case u.ClearEndDate:
		set.add("end_date", nil)
	case u.EndDate != nil:
		set.add("end_date", *u.EndDate)
	}
	if set.empty() {
		return nil
	}

	updated, err := scanExperience(q.QueryRowContext(ctx,
		`UPDATE experiences SET `+set.clause()+` WHERE id = ? RETURNING `+experienceColumns,
		append(set.args, e.ID)...))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("Experience with ID %d was not found.", e.ID)
	}
	if err != nil {
		return fmt.Errorf("models: update experience: %w", database.Translate(err))
	}
	*e = *updated
	return nil
}

func (e *Experience) Delete(ctx context.Context, q database.Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM experiences WHERE id = ?`, e.ID); err != nil {
		return fmt.Errorf("models: delete experience: %w", err)
	}
	return nil
}

// DocumentExperienceID returns the id of the documents_x_experiences row that
// links documentID and experienceID. Text snippets are ordered under it.
func DocumentExperienceID(ctx context.Context, q database.Querier, documentID, experienceID int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`SELECT id FROM documents_x_experiences WHERE document_id = ? AND experience_id = ?`,
		documentID, experienceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("Can not find experience with ID %d in document with ID %d.", experienceID, documentID)
	}
	if err != nil {
		return 0, fmt.Errorf("models: get document experience: %w", err)
	}
	return id, nil
}
