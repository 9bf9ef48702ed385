// Package models maps the resume tables onto Go records. Every function takes
// a database.Querier so callers decide whether it runs inside a transaction.
package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Owned is implemented by every user-owned record.
type Owned interface {
	OwnerName() string
}

// Item is a record that can be attached to a document through a Relation.
type Item interface {
	ItemID() int64
}

// Versioned is implemented by items addressed by (id, version).
type Versioned interface {
	VersionTime() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

// updateSet collects "col = ?" assignments for an UPDATE statement from an
// explicit, per-entity list of updatable columns.
type updateSet struct {
	cols []string
	args []any
}

func (s *updateSet) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *updateSet) empty() bool {
	return len(s.cols) == 0
}

func (s *updateSet) clause() string {
	return strings.Join(s.cols, ", ")
}

// nullableText stores empty strings as NULL.
func nullableText(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func textPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// dbTime scans DATETIME columns. The driver hands back time.Time when it
// knows the declared column type and the stored text otherwise.
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("models: cannot scan %T into time", src)
}

func (t *dbTime) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("models: invalid timestamp %q", s)
}

func timePtr(t dbTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func now() time.Time {
	return time.Now().UTC()
}
