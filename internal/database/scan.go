package database

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// timeFormats are the layouts SQLite returns for aggregated timestamps
var timeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NullTime scans timestamps that some drivers return as text, such as
// MAX(created_at) on SQLite where the column type is lost.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner
func (nt *NullTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case []byte:
		return nt.parse(string(v))
	case string:
		return nt.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into NullTime", value)
	}
}

// Value implements driver.Valuer
func (nt NullTime) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Time, nil
}

// Ptr returns nil for a NULL timestamp
func (nt NullTime) Ptr() *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (nt *NullTime) parse(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range timeFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			nt.Time, nt.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as timestamp", s)
}
