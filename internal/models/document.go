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

// MasterDocumentName is the name given to the master document created for
// every new user.
const MasterDocumentName = "Master"

// Document is a resume or resume template.
type Document struct {
	ID           int64      `json:"id"`
	DocumentName string     `json:"documentName"`
	Owner        string     `json:"owner"`
	CreatedOn    time.Time  `json:"createdOn"`
	LastUpdated  *time.Time `json:"lastUpdated"`
	IsMaster     bool       `json:"isMaster"`
	IsTemplate   bool       `json:"isTemplate"`
	IsLocked     bool       `json:"isLocked"`
}

func (d *Document) OwnerName() string { return d.Owner }
func (d *Document) ItemID() int64     { return d.ID }

// NewDocument holds the fields accepted when creating a document.
type NewDocument struct {
	DocumentName string `json:"documentName"`
	Owner        string `json:"-"`
	IsMaster     bool   `json:"-"`
	IsTemplate   bool   `json:"isTemplate"`
}

// DocumentUpdate lists the updatable document columns. Nil fields are left
// unchanged.
type DocumentUpdate struct {
	DocumentName *string `json:"documentName,omitempty"`
	IsTemplate   *bool   `json:"isTemplate,omitempty"`
	IsLocked     *bool   `json:"isLocked,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u DocumentUpdate) Empty() bool {
	return u.DocumentName == nil && u.IsTemplate == nil && u.IsLocked == nil
}

// NameOnly reports whether documentName is the only field present.
func (u DocumentUpdate) NameOnly() bool {
	return u.DocumentName != nil && u.IsTemplate == nil && u.IsLocked == nil
}

const documentColumns = `id, document_name, owner, created_on, last_updated, is_master, is_template, is_locked`

func scanDocument(s rowScanner) (*Document, error) {
	var (
		d                      Document
		createdOn, lastUpdated dbTime
	)
	if err := s.Scan(&d.ID, &d.DocumentName, &d.Owner, &createdOn, &lastUpdated,
		&d.IsMaster, &d.IsTemplate, &d.IsLocked); err != nil {
		return nil, err
	}
	d.CreatedOn = createdOn.Time
	d.LastUpdated = timePtr(lastUpdated)
	return &d, nil
}

func documentNameTaken(name string) error {
	return apperr.BadRequest("Document name %q already exists.", name)
}

// AddDocument inserts a document and returns it.
func AddDocument(ctx context.Context, q database.Querier, in NewDocument) (*Document, error) {
	d, err := scanDocument(q.QueryRowContext(ctx,
		`INSERT INTO documents (document_name, owner, created_on, is_master, is_template, is_locked)
		 VALUES (?, ?, ?, ?, ?, 0)
		 RETURNING `+documentColumns,
		in.DocumentName, in.Owner, now(), in.IsMaster, in.IsTemplate))
	if err != nil {
		err = database.Translate(err)
		switch {
		case errors.Is(err, database.ErrUniqueViolation):
			return nil, documentNameTaken(in.DocumentName)
		case errors.Is(err, database.ErrForeignKeyViolation):
			return nil, apperr.NotFound("Can not find user %q.", in.Owner)
		}
		return nil, fmt.Errorf("models: add document: %w", err)
	}
	return d, nil
}

// GetDocument returns the document with the given id.
func GetDocument(ctx context.Context, q database.Querier, id int64) (*Document, error) {
	d, err := scanDocument(q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find document with ID %d.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get document: %w", err)
	}
	return d, nil
}

// GetMasterDocument returns the owner's master document.
func GetMasterDocument(ctx context.Context, q database.Querier, owner string) (*Document, error) {
	d, err := scanDocument(q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner = ? AND is_master = 1`, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find master document of %q.", owner)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get master document: %w", err)
	}
	return d, nil
}

// GetDocuments returns every document owned by owner, master first.
func GetDocuments(ctx context.Context, q database.Querier, owner string) ([]Document, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner = ? ORDER BY is_master DESC, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("models: list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// Update applies u to the document and refreshes d. An empty update is a
// no-op. A document that no longer exists is reported as an internal error.
func (d *Document) Update(ctx context.Context, q database.Querier, u DocumentUpdate) error {
	if u.Empty() {
		return nil
	}

	var set updateSet
	if u.DocumentName != nil {
		set.add("document_name", *u.DocumentName)
	}
	if u.IsTemplate != nil {
		set.add("is_template", *u.IsTemplate)
	}
	if u.IsLocked != nil {
		set.add("is_locked", *u.IsLocked)
	}
	set.add("last_updated", now())

	updated, err := scanDocument(q.QueryRowContext(ctx,
		`UPDATE documents SET `+set.clause()+` WHERE id = ? RETURNING `+documentColumns,
		append(set.args, d.ID)...))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("Document with ID %d was not found.", d.ID)
	}
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrUniqueViolation) {
			return documentNameTaken(*u.DocumentName)
		}
		return fmt.Errorf("models: update document: %w", err)
	}
	*d = *updated
	return nil
}

// Delete removes the document. Relationship rows go with it via cascade.
func (d *Document) Delete(ctx context.Context, q database.Querier) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, d.ID); err != nil {
		return fmt.Errorf("models: delete document: %w", err)
	}
	return nil
}
