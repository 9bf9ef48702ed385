package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// ContactInfo is the header block printed on every document of a user.
type ContactInfo struct {
	Username string  `json:"username"`
	FullName string  `json:"fullName"`
	Location *string `json:"location"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
}

func (c *ContactInfo) OwnerName() string { return c.Username }

// ContactInfoInput is the body accepted when replacing contact info.
type ContactInfoInput struct {
	FullName string  `json:"fullName"`
	Location *string `json:"location,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
	GitHub   *string `json:"github,omitempty"`
}

const contactInfoColumns = `username, full_name, location, email, phone, linkedin, github`

func scanContactInfo(s rowScanner) (*ContactInfo, error) {
	var (
		c                                        ContactInfo
		location, email, phone, linkedin, github sql.NullString
	)
	if err := s.Scan(&c.Username, &c.FullName, &location, &email, &phone, &linkedin, &github); err != nil {
		return nil, err
	}
	c.Location, c.Email, c.Phone = textPtr(location), textPtr(email), textPtr(phone)
	c.LinkedIn, c.GitHub = textPtr(linkedin), textPtr(github)
	return &c, nil
}

// GetContactInfo returns the contact info of username.
func GetContactInfo(ctx context.Context, q database.Querier, username string) (*ContactInfo, error) {
	c, err := scanContactInfo(q.QueryRowContext(ctx,
		`SELECT `+contactInfoColumns+` FROM contact_info WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find contact info of %q.", username)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get contact info: %w", err)
	}
	return c, nil
}

// PutContactInfo creates or replaces the contact info of username.
func PutContactInfo(ctx context.Context, q database.Querier, username string, in ContactInfoInput) (*ContactInfo, error) {
	c, err := scanContactInfo(q.QueryRowContext(ctx,
		`INSERT INTO contact_info (username, full_name, location, email, phone, linkedin, github)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO UPDATE SET
		   full_name = excluded.full_name,
		   location  = excluded.location,
		   email     = excluded.email,
		   phone     = excluded.phone,
		   linkedin  = excluded.linkedin,
		   github    = excluded.github
		 RETURNING `+contactInfoColumns,
		username, in.FullName, nullableText(in.Location), nullableText(in.Email),
		nullableText(in.Phone), nullableText(in.LinkedIn), nullableText(in.GitHub)))
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrForeignKeyViolation) {
			return nil, apperr.NotFound("Can not find user %q.", username)
		}
		return nil, fmt.Errorf("models: put contact info: %w", err)
	}
	return c, nil
}
