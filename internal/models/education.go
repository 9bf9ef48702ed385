package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// Education is a school entry authored by a user.
type Education struct {
	ID              int64   `json:"id"`
	Owner           string  `json:"owner"`
	School          string  `json:"school"`
	Location        string  `json:"location"`
	StartDate       Date    `json:"startDate"`
	EndDate         Date    `json:"endDate"`
	Degree          string  `json:"degree"`
	GPA             *string `json:"gpa"`
	AwardsAndHonors *string `json:"awardsAndHonors"`
	Activities      *string `json:"activities"`
}

func (e *Education) OwnerName() string { return e.Owner }
func (e *Education) ItemID() int64     { return e.ID }

// NewEducation holds the fields accepted when creating an education.
type NewEducation struct {
	School          string  `json:"school"`
	Location        string  `json:"location"`
	StartDate       Date    `json:"startDate"`
	EndDate         Date    `json:"endDate"`
	Degree          string  `json:"degree"`
	GPA             *string `json:"gpa,omitempty"`
	AwardsAndHonors *string `json:"awardsAndHonors,omitempty"`
	Activities      *string `json:"activities,omitempty"`
}

// EducationUpdate lists the updatable education columns. Nil fields are left
// unchanged; an empty string clears an optional field.
type EducationUpdate struct {
	School          *string `json:"school,omitempty"`
	Location        *string `json:"location,omitempty"`
	StartDate       *Date   `json:"startDate,omitempty"`
	EndDate         *Date   `json:"endDate,omitempty"`
	Degree          *string `json:"degree,omitempty"`
	GPA             *string `json:"gpa,omitempty"`
	AwardsAndHonors *string `json:"awardsAndHonors,omitempty"`
	Activities      *string `json:"activities,omitempty"`
}

const educationColumns = `id, owner, school, location, start_date, end_date, degree, gpa, awards_and_honors, activities`

func scanEducation(s rowScanner) (*Education, error) {
	var (
		e                       Education
		gpa, awards, activities sql.NullString
	)
	if err := s.Scan(&e.ID, &e.Owner, &e.School, &e.Location, &e.StartDate, &e.EndDate,
		&e.Degree, &gpa, &awards, &activities); err != nil {
		return nil, err
	}
	e.GPA, e.AwardsAndHonors, e.Activities = textPtr(gpa), textPtr(awards), textPtr(activities)
	return &e, nil
}

// AddEducation inserts an education owned by owner.
func AddEducation(ctx context.Context, q database.Querier, owner string, in NewEducation) (*Education, error) {
	e, err := scanEducation(q.QueryRowContext(ctx,
		`INSERT INTO educations (owner, school, location, start_date, end_date, degree, gpa, awards_and_honors, activities)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+educationColumns,
		owner, in.School, in.Location, in.StartDate, in.EndDate, in.Degree,
		nullableText(in.GPA), nullableText(in.AwardsAndHonors), nullableText(in.Activities)))
	if err != nil {
		return nil, fmt.Errorf("models: add education: %w", database.Translate(err))
	}
	return e, nil
}

// GetEducation returns the education with the given id.
func GetEducation(ctx context.Context, q database.Querier, id int64) (*Education, error) {
	e, err := scanEducation(q.QueryRowContext(ctx,
		`SELECT `+educationColumns+` FROM educations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find education with ID %d.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get education: %w", err)
	}
	return e, nil
}

// GetEducations returns every education owned by owner.
func GetEducations(ctx context.Context, q database.Querier, owner string) ([]Education, error) {
	return queryEducations(ctx, q, `SELECT `+educationColumns+` FROM educations WHERE owner = ? ORDER BY id`, owner)
}

// GetEducationsInDocument returns the educations attached to a document in
// position order.
func GetEducationsInDocument(ctx context.Context, q database.Querier, documentID int64) ([]Education, error) {
	return queryEducations(ctx, q,
		`SELECT e.id, e.owner, e.school, e.location, e.start_date, e.end_date, e.degree,
		        e.gpa, e.awards_and_honors, e.activities
		   FROM educations e
		   JOIN documents_x_educations dxe ON dxe.education_id = e.id
		  WHERE dxe.document_id = ?
		  ORDER BY dxe.position`, documentID)
}

func queryEducations(ctx context.Context, q database.Querier, query string, args ...any) ([]Education, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list educations: %w", err)
	}
	defer rows.Close()

	out := []Education{}
	for rows.Next() {
		e, err := scanEducation(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan education: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update applies u and refreshes e. An empty update is a no-op. The dates
// that result from merging u onto e must still form a valid range.
func (e *Education) Update(ctx context.Context, q database.Querier, u EducationUpdate) error {
	start, end := e.StartDate, e.EndDate
	if u.StartDate != nil {
		start = *u.StartDate
	}
	if u.EndDate != nil {
		end = *u.EndDate
	}
	if err := checkDateRange("Education", start, &end); err != nil {
		return err
	}

	var set updateSet
	if u.School != nil {
		set.add("school", *u.School)
	}
	if u.Location != nil {
		set.add("location", *u.Location)
	}
	if u.StartDate != nil {
		set.add("start_date", *u.StartDate)
	}
	if u.EndDate != nil {
		set.add("end_date", *u.EndDate)
	}
	if u.Degree != nil {
		set.add("degree", *u.Degree)
	}
	if u.GPA != nil {
		set.add("gpa", nullableText(u.GPA))
	}
	if u.AwardsAndHonors != nil {
		set.add("awards_and_honors", nullableText(u.AwardsAndHonors))
	}
	if u.Activities != nil {
		set.add("activities", nullableText(u.Activities))
	}
	if set.empty() {
		return nil
	}

	updated, err := scanEducation(q.QueryRowContext(ctx,
		`UPDATE educations SET `+set.clause()+` WHERE id = ? RETURNING `+educationColumns,
		append(set.args, e.ID)...))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("Education with ID %d was not found.", e.ID)
	}
	if err != nil {
		return fmt.Errorf("models: update education: %w", database.Translate(err))
	}
	*e = *updated
	return nil
}

// Delete removes the education and, via cascade, its document relationships.
func (e *Education) Delete(ctx context.Context, q database.Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM educations WHERE id = ?`, e.ID); err != nil {
		return fmt.Errorf("models: delete education: %w", err)
	}
	return nil
}
