package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/starford/resumectl/internal/apperr"
)

const dateLayout = "2006-01-02"

// Date is a calendar day serialised as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate returns the Date for the given day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the day at midnight UTC.
func (d Date) Value() (driver.Value, error) {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		y, m, day := v.Date()
		*d = NewDate(y, m, day)
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
	default:
		return fmt.Errorf("models: cannot scan %T into Date", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func datePtr(nt nullDate) *Date {
	if !nt.Valid {
		return nil
	}
	d := nt.Date
	return &d
}

// nullDate scans a nullable DATE column.
type nullDate struct {
	Date  Date
	Valid bool
}

func (n *nullDate) Scan(src any) error {
	if src == nil {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	n.Valid = true
	return n.Date.Scan(src)
}

func nullableDate(d *Date) any {
	if d == nil {
		return nil
	}
	v, _ := d.Value()
	return v
}

// checkDateRange rejects an end date that falls before start. A nil or zero
// end is an open range.
func checkDateRange(noun string, start Date, end *Date) error {
	if end == nil || end.IsZero() || start.IsZero() || !end.Before(start.Time) {
		return nil
	}
	return apperr.BadRequest("%s end date %s can not be before its start date %s.", noun, end, start)
}
