package timestamp

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "zoned without fraction",
			raw:  "2025-12-13T18:29:21Z",
			want: time.Date(2025, 12, 13, 18, 29, 21, 0, time.UTC),
		},
		{
			name: "zoned with offset",
			raw:  "2025-12-13T18:29:21+02:00",
			want: time.Date(2025, 12, 13, 16, 29, 21, 0, time.UTC),
		},
		{
			name: "zoned with fraction",
			raw:  "2025-12-13T18:29:21.5Z",
			want: time.Date(2025, 12, 13, 18, 29, 21, 500000000, time.UTC),
		},
		{
			name: "naive with fraction is UTC",
			raw:  "2025-12-13T18:29:21.349613",
			want: time.Date(2025, 12, 13, 18, 29, 21, 349613000, time.UTC),
		},
		{
			name: "naive without fraction is UTC",
			raw:  "2025-12-13T18:29:21",
			want: time.Date(2025, 12, 13, 18, 29, 21, 0, time.UTC),
		},
		{
			name: "surrounding whitespace",
			raw:  "  2025-12-13T18:29:21Z ",
			want: time.Date(2025, 12, 13, 18, 29, 21, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if got.Location() != time.UTC {
				t.Errorf("Expected UTC location, got %v", got.Location())
			}
		})
	}
}

func TestParse_NaiveIgnoresLocalZone(t *testing.T) {
	t.Parallel()

	got, err := Parse("2025-12-13T18:29:21.349613")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Hour() != 18 || got.Minute() != 29 || got.Second() != 21 {
		t.Errorf("Expected wall clock 18:29:21 UTC, got %v", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"yesterday",
		"2025-12-13",
		"13/12/2025 18:29",
		"2025-12-13T25:00:00Z",
		"2025-12-13 18:29:21",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(raw)
			if err == nil {
				t.Fatalf("Expected error for %q", raw)
			}
			if !errors.Is(err, ErrInvalidTimestamp) {
				t.Errorf("Expected ErrInvalidTimestamp, got %v", err)
			}
			var invalid *InvalidTimestampError
			if !errors.As(err, &invalid) {
				t.Fatalf("Expected *InvalidTimestampError, got %T", err)
			}
			if invalid.Raw != raw {
				t.Errorf("Expected raw %q, got %q", raw, invalid.Raw)
			}
		})
	}
}

func TestParsers_EachAcceptsOnlyItsShape(t *testing.T) {
	t.Parallel()

	samples := map[string]string{
		"iso8601":              "2025-12-13T18:29:21Z",
		"iso8601_fractional":   "2025-12-13T18:29:21.349Z",
		"naive_fractional_utc": "2025-12-13T18:29:21.349613",
		"naive_utc":            "2025-12-13T18:29:21",
	}

	chain := Parsers()
	if len(chain) != 4 {
		t.Fatalf("Expected 4 parsers, got %d", len(chain))
	}
	wantOrder := []string{"iso8601", "iso8601_fractional", "naive_fractional_utc", "naive_utc"}
	for i, p := range chain {
		if p.Name != wantOrder[i] {
			t.Errorf("Expected parser %d to be %s, got %s", i, wantOrder[i], p.Name)
		}
	}

	for _, p := range chain {
		for sampleName, raw := range samples {
			_, err := p.Parse(raw)
			accepted := err == nil
			if accepted != (sampleName == p.Name) {
				t.Errorf("Parser %s on %s sample %q: accepted=%v", p.Name, sampleName, raw, accepted)
			}
		}
	}
}

func TestParseOptional(t *testing.T) {
	t.Parallel()

	got, err := ParseOptional("")
	if err != nil || got != nil {
		t.Errorf("Expected nil, nil for empty input, got %v, %v", got, err)
	}

	got, err = ParseOptional("2025-12-13T18:29:21")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got == nil || got.Hour() != 18 {
		t.Errorf("Expected decoded time, got %v", got)
	}

	if _, err := ParseOptional("bogus"); !IsInvalidTimestamp(err) {
		t.Errorf("Expected invalid timestamp error, got %v", err)
	}
}

func TestTime_JSON(t *testing.T) {
	t.Parallel()

	var payload struct {
		CreatedAt Time  `json:"created_at"`
		DueDate   *Time `json:"due_date"`
		PinnedAt  Time  `json:"pinned_at"`
	}
	body := `{"created_at":"2025-12-13T18:29:21.349613","due_date":null,"pinned_at":""}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	want := time.Date(2025, 12, 13, 18, 29, 21, 349613000, time.UTC)
	if !payload.CreatedAt.Equal(want) {
		t.Errorf("Expected %v, got %v", want, payload.CreatedAt.Time)
	}
	if payload.DueDate.Ptr() != nil {
		t.Errorf("Expected nil due date, got %v", payload.DueDate)
	}
	if !payload.PinnedAt.IsZero() {
		t.Errorf("Expected zero pinned_at, got %v", payload.PinnedAt.Time)
	}

	out, err := json.Marshal(payload.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(out) != `"2025-12-13T18:29:21.349613Z"` {
		t.Errorf("Expected RFC3339 output, got %s", out)
	}
}

func TestTime_JSONInvalidPropagates(t *testing.T) {
	t.Parallel()

	var payload struct {
		CreatedAt Time `json:"created_at"`
	}
	err := json.Unmarshal([]byte(`{"created_at":"not-a-date"}`), &payload)
	if err == nil {
		t.Fatal("Expected error for invalid timestamp")
	}
	if !IsInvalidTimestamp(err) {
		t.Errorf("Expected invalid timestamp error, got %v", err)
	}
}

func TestTime_YAML(t *testing.T) {
	t.Parallel()

	var payload struct {
		CreatedAt Time  `yaml:"created_at"`
		DueDate   *Time `yaml:"due_date"`
		PinnedAt  Time  `yaml:"pinned_at"`
	}
	body := "created_at: 2025-12-13T18:29:21.349613\ndue_date: \"2025-12-14T09:00:00+02:00\"\npinned_at: ~\n"
	if err := yaml.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	want := time.Date(2025, 12, 13, 18, 29, 21, 349613000, time.UTC)
	if !payload.CreatedAt.Equal(want) {
		t.Errorf("Expected %v, got %v", want, payload.CreatedAt.Time)
	}
	if due := payload.DueDate.Ptr(); due == nil || !due.Equal(time.Date(2025, 12, 14, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected due date 07:00 UTC, got %v", due)
	}
	if !payload.PinnedAt.IsZero() {
		t.Errorf("Expected zero pinned_at, got %v", payload.PinnedAt.Time)
	}

	err := yaml.Unmarshal([]byte("created_at: next tuesday\n"), &payload)
	if !IsInvalidTimestamp(err) {
		t.Errorf("Expected invalid timestamp error, got %v", err)
	}
}
