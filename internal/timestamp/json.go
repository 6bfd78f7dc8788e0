package timestamp

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Time is a time.Time that decodes from any upstream timestamp format.
type Time struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface for Time.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Time. The raw scalar is
// decoded through the same chain as JSON, so YAML's own timestamp resolution is bypassed.
func (t *Time) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", value.Line)
	}
	if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Time.
func (t Time) MarshalYAML() (any, error) {
	if t.Time.IsZero() {
		return nil, nil
	}
	return t.Time.UTC().Format(time.RFC3339Nano), nil
}

// Ptr returns nil for the zero value, otherwise a pointer to the instant.
func (t *Time) Ptr() *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
