// Package eventdate converts event dates between time.Time and the ISO-8601
// strings the backend stores.
package eventdate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// ErrEmpty is returned by Parse for a blank value.
var ErrEmpty = errors.New("eventdate: empty value")

// Parse accepts RFC 3339 / ISO-8601 with or without fractional seconds or
// zone. Values without a zone are read as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	dt, err := strfmt.ParseDateTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("eventdate: parse %q: %w", s, err)
	}
	return time.Time(dt), nil
}

// Format renders t in UTC with millisecond precision,
// e.g. 2022-09-22T13:30:00.675Z.
func Format(t time.Time) string {
	return t.UTC().Format(strfmt.RFC3339Millis)
}
