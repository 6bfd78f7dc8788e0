package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/timestamp"
	"github.com/benvon/smart-planner/internal/validation"
	"gopkg.in/yaml.v3"
)

// readRecords reads a YAML (or JSON) list of records from path, or stdin when path is "-",
// and validates every record.
func readRecords[T any](path string, stdin io.Reader) ([]T, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []T
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range records {
		if err := validation.Validate.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("record %d: %s", i, validation.FormatErrors(err))
		}
	}
	return records, nil
}

func loadCalendar(tz string) (calendar.Calendar, error) {
	if tz == "" {
		return calendar.UTC(), nil
	}
	cal, err := calendar.Load(tz)
	if err != nil {
		return calendar.Calendar{}, fmt.Errorf("invalid --tz: %w", err)
	}
	return cal, nil
}

// parseNow returns the current time unless raw overrides it
func parseNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	now, err := timestamp.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return now, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
