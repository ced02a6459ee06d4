package fetcher

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// ErrDateFormat is returned when a user supplied date cannot be parsed
type ErrDateFormat struct {
	Input string
	Err   error
}

func (e ErrDateFormat) Error() string {
	return fmt.Sprintf("cannot parse date %q: %v", e.Input, e.Err)
}

func (e ErrDateFormat) Unwrap() error { return e.Err }

// ParseDate parses a user supplied date in any common format
func ParseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, ErrDateFormat{Input: s, Err: err}
	}
	return t, nil
}

// ToISODate formats a date as YYYY-MM-DD
func ToISODate(t time.Time) string {
	return t.Format("2006-01-02")
}
