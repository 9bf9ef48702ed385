package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/resumectl/internal/apperr"
	"github.com/starford/resumectl/internal/database"
)

// Relation describes an ordered join table between a parent (usually a
// document) and the items attached to it. One Relation value serves every
// join table; the operations below are parameterised by its columns.
type Relation struct {
	Table         string
	ParentColumn  string
	ItemColumn    string
	VersionColumn string // optional; set when items are addressed by (id, version)

	// JSON keys used when a row is serialised.
	ParentKey  string
	ItemKey    string
	VersionKey string

	// Human-readable nouns for error messages.
	ParentNoun string
	ItemNoun   string
}

// RelationRow is one row of a Relation's table.
type RelationRow struct {
	rel *Relation

	ParentID    int64
	ItemID      int64
	ItemVersion time.Time
	Position    int
}

// Relation returns the relation the row belongs to.
func (r *RelationRow) Relation() *Relation {
	return r.rel
}

// MarshalJSON writes the row using the relation's key names, e.g.
// {"documentId":1,"educationId":4,"position":0}.
func (r RelationRow) MarshalJSON() ([]byte, error) {
	rel := r.rel
	if rel == nil {
		rel = &Relation{ParentKey: "parentId", ItemKey: "itemId", VersionKey: "itemVersion"}
	}
	m := map[string]any{
		rel.ParentKey: r.ParentID,
		rel.ItemKey:   r.ItemID,
		"position":    r.Position,
	}
	if rel.VersionColumn != "" {
		m[rel.VersionKey] = r.ItemVersion
	}
	return json.Marshal(m)
}

func (rel *Relation) columns() string {
	if rel.VersionColumn != "" {
		return fmt.Sprintf("%s, %s, %s, position", rel.ParentColumn, rel.ItemColumn, rel.VersionColumn)
	}
	return fmt.Sprintf("%s, %s, position", rel.ParentColumn, rel.ItemColumn)
}

func (rel *Relation) scan(s rowScanner) (*RelationRow, error) {
	var (
		row     = &RelationRow{rel: rel}
		version dbTime
	)
	dest := []any{&row.ParentID, &row.ItemID}
	if rel.VersionColumn != "" {
		dest = append(dest, &version)
	}
	dest = append(dest, &row.Position)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	row.ItemVersion = version.Time
	return row, nil
}

// Add inserts a new relation row. A missing parent or item yields a NotFound
// error; an existing (parent, item) pair yields database.ErrUniqueViolation,
// which callers translate into their own domain error.
func (rel *Relation) Add(ctx context.Context, q database.Querier, in RelationRow) (*RelationRow, error) {
	if in.Position < 0 {
		return nil, apperr.BadRequest("Position can not be less than 0.")
	}

	args := []any{in.ParentID, in.ItemID}
	placeholders := "?, ?, ?"
	if rel.VersionColumn != "" {
		args = append(args, in.ItemVersion.UTC())
		placeholders = "?, ?, ?, ?"
	}
	args = append(args, in.Position)

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		rel.Table, rel.columns(), placeholders, rel.columns())
	row, err := rel.scan(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		err = database.Translate(err)
		if errors.Is(err, database.ErrForeignKeyViolation) {
			return nil, apperr.NotFound("%s or %s was not found. %s ID: %d, %s ID: %d.",
				capitalize(rel.ParentNoun), rel.ItemNoun, capitalize(rel.ParentNoun), in.ParentID,
				capitalize(rel.ItemNoun), in.ItemID)
		}
		return nil, fmt.Errorf("models: add %s: %w", rel.Table, err)
	}
	return row, nil
}

// Get returns the row linking parentID and itemID.
func (rel *Relation) Get(ctx context.Context, q database.Querier, parentID, itemID int64) (*RelationRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`,
		rel.columns(), rel.Table, rel.ParentColumn, rel.ItemColumn)
	row, err := rel.scan(q.QueryRowContext(ctx, query, parentID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Can not find %s-%s relation with %s ID %d and %s ID %d.",
			rel.ParentNoun, rel.ItemNoun, rel.ParentNoun, parentID, rel.ItemNoun, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("models: get %s: %w", rel.Table, err)
	}
	return row, nil
}

// GetAll returns every row of parentID in ascending position order.
func (rel *Relation) GetAll(ctx context.Context, q database.Querier, parentID int64) ([]RelationRow, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY position`,
		rel.columns(), rel.Table, rel.ParentColumn)
	rows, err := q.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("models: list %s: %w", rel.Table, err)
	}
	defer rows.Close()

	var out []RelationRow
	for rows.Next() {
		row, err := rel.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan %s: %w", rel.Table, err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// UpdatePosition moves row to position and refreshes it. Zero affected rows
// means the caller held a stale row and is reported as an internal error.
func (rel *Relation) UpdatePosition(ctx context.Context, q database.Querier, row *RelationRow, position int) error {
	if position < 0 {
		return apperr.BadRequest("Position can not be less than 0.")
	}
	query := fmt.Sprintf(`UPDATE %s SET position = ? WHERE %s = ? AND %s = ? RETURNING %s`,
		rel.Table, rel.ParentColumn, rel.ItemColumn, rel.columns())
	updated, err := rel.scan(q.QueryRowContext(ctx, query, position, row.ParentID, row.ItemID))
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Internal("%s-%s relation with %s ID %d and %s ID %d was not found.",
			capitalize(rel.ParentNoun), rel.ItemNoun, rel.ParentNoun, row.ParentID, rel.ItemNoun, row.ItemID)
	}
	if err != nil {
		return fmt.Errorf("models: update %s position: %w", rel.Table, database.Translate(err))
	}
	*row = *updated
	return nil
}

// UpdateAllPositions assigns position i to itemIDs[i] for every row of
// parentID. Positions are first moved to negative values so the
// UNIQUE(parent, position) constraint holds after every statement. Callers
// run this inside a transaction and are expected to pass exactly the set of
// attached item IDs.
func (rel *Relation) UpdateAllPositions(ctx context.Context, q database.Querier, parentID int64, itemIDs []int64) error {
	park := fmt.Sprintf(`UPDATE %s SET position = -1 - position WHERE %s = ?`, rel.Table, rel.ParentColumn)
	if _, err := q.ExecContext(ctx, park, parentID); err != nil {
		return fmt.Errorf("models: park %s positions: %w", rel.Table, err)
	}

	set := fmt.Sprintf(`UPDATE %s SET position = ? WHERE %s = ? AND %s = ?`,
		rel.Table, rel.ParentColumn, rel.ItemColumn)
	for i, itemID := range itemIDs {
		res, err := q.ExecContext(ctx, set, i, parentID, itemID)
		if err != nil {
			return fmt.Errorf("models: set %s position: %w", rel.Table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("models: set %s position: %w", rel.Table, err)
		}
		if n == 0 {
			return apperr.Internal("%s-%s relation with %s ID %d and %s ID %d was not found.",
				capitalize(rel.ParentNoun), rel.ItemNoun, rel.ParentNoun, parentID, rel.ItemNoun, itemID)
		}
	}
	return nil
}

// ParentsOf returns the distinct parents itemID is attached to, in ascending
// order.
func (rel *Relation) ParentsOf(ctx context.Context, q database.Querier, itemID int64) ([]int64, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s = ? ORDER BY %s`,
		rel.ParentColumn, rel.Table, rel.ItemColumn, rel.ParentColumn)
	return queryIDs(ctx, q, rel.Table, query, itemID)
}

func queryIDs(ctx context.Context, q database.Querier, table, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("models: list %s parents: %w", table, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("models: scan %s parent: %w", table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the row linking parentID and itemID. Deleting a row that
// does not exist is not an error.
func (rel *Relation) Delete(ctx context.Context, q database.Querier, parentID, itemID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, rel.Table, rel.ParentColumn, rel.ItemColumn)
	if _, err := q.ExecContext(ctx, query, parentID, itemID); err != nil {
		return fmt.Errorf("models: delete %s: %w", rel.Table, err)
	}
	return nil
}

// LastPosition returns the highest position in rows, or -1 when rows is
// empty, so the next free position is always LastPosition(rows) + 1.
func LastPosition(rows []RelationRow) int {
	last := -1
	for _, r := range rows {
		if r.Position > last {
			last = r.Position
		}
	}
	return last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
