// Package timestamp decodes the timestamp strings produced by the upstream planner API.
//
// The upstream service is inconsistent about timezone designators and fractional
// seconds, so decoding walks an ordered list of layouts and returns the first match.
// A string without a zone designator is always read as UTC, never as local time.
package timestamp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp is matched by every decoding failure.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// InvalidTimestampError reports a string that no parser accepted.
type InvalidTimestampError struct {
	Raw string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: expected ISO-8601 date-time", e.Raw)
}

// Is makes errors.Is(err, ErrInvalidTimestamp) succeed.
func (e *InvalidTimestampError) Is(target error) bool {
	return target == ErrInvalidTimestamp
}

// IsInvalidTimestamp checks if an error is a timestamp decoding error
func IsInvalidTimestamp(err error) bool {
	return errors.Is(err, ErrInvalidTimestamp)
}

// Parser is one attempt in the decoding chain.
type Parser struct {
	Name  string
	Parse func(raw string) (time.Time, error)
}

const (
	layoutZoned         = "2006-01-02T15:04:05Z07:00"
	layoutZonedFraction = "2006-01-02T15:04:05.999999999Z07:00"
	layoutNaiveFraction = "2006-01-02T15:04:05.999999999"
	layoutNaive         = "2006-01-02T15:04:05"
)

var parsers = []Parser{
	{Name: "iso8601", Parse: layoutParser(layoutZoned, true, false)},
	{Name: "iso8601_fractional", Parse: layoutParser(layoutZonedFraction, true, true)},
	{Name: "naive_fractional_utc", Parse: layoutParser(layoutNaiveFraction, false, true)},
	{Name: "naive_utc", Parse: layoutParser(layoutNaive, false, false)},
}

// Parsers returns the decoding chain in evaluation order.
func Parsers() []Parser {
	out := make([]Parser, len(parsers))
	copy(out, parsers)
	return out
}

// layoutParser builds a parser for one layout. Zoned layouts keep the offset from the
// string; naive layouts are interpreted in UTC. time.Parse tolerates a fractional second
// the layout does not mention, so the fraction is checked explicitly to keep each parser
// limited to its own shape.
func layoutParser(layout string, zoned, fractional bool) func(string) (time.Time, error) {
	return func(raw string) (time.Time, error) {
		if strings.Contains(raw, ".") != fractional {
			return time.Time{}, fmt.Errorf("fractional seconds mismatch for layout %s", layout)
		}
		if zoned {
			return time.Parse(layout, raw)
		}
		return time.ParseInLocation(layout, raw, time.UTC)
	}
}

// Parse decodes raw using the first parser in the chain that accepts it.
// The returned instant is normalized to UTC.
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &InvalidTimestampError{Raw: raw}
	}
	for _, p := range parsers {
		if t, err := p.Parse(s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &InvalidTimestampError{Raw: raw}
}

// ParseOptional decodes raw, treating an empty string as "no timestamp".
func ParseOptional(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
