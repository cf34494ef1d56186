package models

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateTimeLayout is ISO-8601 local date-time at second precision, without zone
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime serializes a wall-clock time without a zone suffix.
// Decoded values carry no zone information; use In to anchor them.
type LocalDateTime struct {
	time.Time
}

func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: t}
}

func (d LocalDateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(LocalDateTimeLayout) + `"`), nil
}

func (d *LocalDateTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	// Accept minute precision too, e.g. 2025-05-01T10:00
	layouts := []string{LocalDateTimeLayout, "2006-01-02T15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid local date-time %q, want %s", s, LocalDateTimeLayout)
}

// In reinterprets the wall clock reading in loc
func (d LocalDateTime) In(loc *time.Location) time.Time {
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
