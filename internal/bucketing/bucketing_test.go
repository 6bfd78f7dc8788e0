package bucketing

import (
	"testing"
	"time"

	"github.com/benvon/smart-planner/internal/calendar"
	"github.com/benvon/smart-planner/internal/models"
	"github.com/google/uuid"
)

var referenceNow = time.Date(2025, 12, 13, 12, 0, 0, 0, time.UTC)

func taskDue(title string, due time.Time) *models.Task {
	return &models.Task{ID: uuid.New(), Title: title, DueDate: &due, UpdatedAt: referenceNow}
}

func undatedTask(title string, updated time.Time) *models.Task {
	return &models.Task{ID: uuid.New(), Title: title, UpdatedAt: updated}
}

func TestComputeBoundaries(t *testing.T) {
	t.Parallel()

	b := ComputeBoundaries(referenceNow, calendar.UTC())

	want := Boundaries{
		StartOfToday:   time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC),
		EndOfToday:     time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC),
		EndOfNext7Days: time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC),
	}
	if !b.StartOfToday.Equal(want.StartOfToday) {
		t.Errorf("Expected start of today %v, got %v", want.StartOfToday, b.StartOfToday)
	}
	if !b.EndOfToday.Equal(want.EndOfToday) {
		t.Errorf("Expected end of today %v, got %v", want.EndOfToday, b.EndOfToday)
	}
	if !b.EndOfNext7Days.Equal(want.EndOfNext7Days) {
		t.Errorf("Expected end of window %v, got %v", want.EndOfNext7Days, b.EndOfNext7Days)
	}
}

func TestBucketFor(t *testing.T) {
	t.Parallel()

	cal := calendar.UTC()

	tests := []struct {
		name string
		task *models.Task
		want models.Bucket
	}{
		{"no due date", undatedTask("x", referenceNow), models.BucketNoDate},
		{"nil task", nil, models.BucketNoDate},
		{"due yesterday", taskDue("x", referenceNow.AddDate(0, 0, -1)), models.BucketOverdue},
		{"due last second of yesterday", taskDue("x", time.Date(2025, 12, 12, 23, 59, 59, 0, time.UTC)), models.BucketOverdue},
		{"due earlier today", taskDue("x", time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC)), models.BucketToday},
		{"due later today", taskDue("x", time.Date(2025, 12, 13, 23, 59, 59, 0, time.UTC)), models.BucketToday},
		{"due tomorrow midnight", taskDue("x", time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC)), models.BucketNext7Days},
		{"due in seven days", taskDue("x", time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC)), models.BucketNext7Days},
		{"due in eight days", taskDue("x", time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)), models.BucketLater},
		{"due next year", taskDue("x", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)), models.BucketLater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BucketFor(tt.task, referenceNow, cal); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBucketFor_UsesCalendarTimezone(t *testing.T) {
	t.Parallel()

	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("timezone not available: %v", err)
	}

	// 06:00 UTC Dec 13 is 22:00 Dec 12 in Los Angeles.
	task := taskDue("x", time.Date(2025, 12, 13, 6, 0, 0, 0, time.UTC))
	now := time.Date(2025, 12, 13, 12, 0, 0, 0, time.UTC) // 04:00 Dec 13 in LA

	if got := BucketFor(task, now, calendar.UTC()); got != models.BucketToday {
		t.Errorf("Expected today in UTC, got %s", got)
	}
	if got := BucketFor(task, now, calendar.New(la)); got != models.BucketOverdue {
		t.Errorf("Expected overdue in Los Angeles, got %s", got)
	}
}

func TestFilteredTasks(t *testing.T) {
	t.Parallel()

	cal := calendar.UTC()
	done := referenceNow.Add(-time.Hour)

	overdue := taskDue("overdue", referenceNow.AddDate(0, 0, -2))
	today := taskDue("today", referenceNow.Add(time.Hour))
	soon := taskDue("soon", referenceNow.AddDate(0, 0, 3))
	later := taskDue("later", referenceNow.AddDate(0, 1, 0))
	someday := undatedTask("someday", referenceNow)
	finished := taskDue("finished", referenceNow.AddDate(0, 0, -1))
	finished.CompletedAt = &done

	all := []*models.Task{overdue, today, soon, later, someday, finished, nil}

	tests := []struct {
		filter models.TaskFilter
		want   []*models.Task
	}{
		{models.TaskFilterInbox, []*models.Task{overdue, today, soon, later, someday, finished}},
		{models.TaskFilterToday, []*models.Task{overdue, today, finished}},
		{models.TaskFilterUpcoming, []*models.Task{soon, later}},
		{models.TaskFilterSomeday, []*models.Task{someday}},
		{models.TaskFilterOpen, []*models.Task{overdue, today, soon, later, someday}},
		{models.TaskFilterCompleted, []*models.Task{finished}},
		{models.TaskFilter("bogus"), []*models.Task{overdue, today, soon, later, someday, finished}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			t.Parallel()

			got := FilteredTasks(all, tt.filter, referenceNow, cal)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d tasks, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Position %d: expected %s, got %s", i, tt.want[i].Title, got[i].Title)
				}
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	t.Parallel()

	if f, err := ParseFilter(""); err != nil || f != models.TaskFilterInbox {
		t.Errorf("Expected inbox for empty filter, got %q, %v", f, err)
	}
	if f, err := ParseFilter(" upcoming "); err != nil || f != models.TaskFilterUpcoming {
		t.Errorf("Expected upcoming, got %q, %v", f, err)
	}
	if _, err := ParseFilter("tomorrow"); err == nil {
		t.Error("Expected error for unknown filter")
	}
	if IsValidFilter("tomorrow") {
		t.Error("Expected tomorrow to be invalid")
	}
}

func TestSections(t *testing.T) {
	t.Parallel()

	cal := calendar.UTC()

	soonB := taskDue("soon-b", referenceNow.AddDate(0, 0, 4))
	soonA := taskDue("soon-a", referenceNow.AddDate(0, 0, 2))
	overdue := taskDue("overdue", referenceNow.AddDate(0, 0, -1))
	staleNote := undatedTask("stale", referenceNow.AddDate(0, 0, -10))
	freshNote := undatedTask("fresh", referenceNow.Add(-time.Minute))
	far := taskDue("far", referenceNow.AddDate(0, 2, 0))

	got := Sections([]*models.Task{soonB, staleNote, far, overdue, freshNote, soonA}, referenceNow, cal)

	wantBuckets := []models.Bucket{models.BucketOverdue, models.BucketNext7Days, models.BucketLater, models.BucketNoDate}
	if len(got) != len(wantBuckets) {
		t.Fatalf("Expected %d sections, got %d", len(wantBuckets), len(got))
	}
	for i, b := range wantBuckets {
		if got[i].Bucket != b {
			t.Errorf("Section %d: expected %s, got %s", i, b, got[i].Bucket)
		}
		if len(got[i].Tasks) == 0 {
			t.Errorf("Section %s should not be empty", b)
		}
	}

	next := got[1].Tasks
	if next[0] != soonA || next[1] != soonB {
		t.Errorf("Expected next7Days ascending by due date, got %s, %s", next[0].Title, next[1].Title)
	}
	if got[1].Title != "Next 7 days" {
		t.Errorf("Expected default title, got %q", got[1].Title)
	}

	undated := got[3].Tasks
	if undated[0] != freshNote || undated[1] != staleNote {
		t.Errorf("Expected noDate descending by update time, got %s, %s", undated[0].Title, undated[1].Title)
	}
}

func TestSections_StableForEqualKeys(t *testing.T) {
	t.Parallel()

	due := referenceNow.AddDate(0, 0, 1)
	first := taskDue("first", due)
	second := taskDue("second", due)
	third := taskDue("third", due)

	got := Sections([]*models.Task{first, second, third}, referenceNow, calendar.UTC())
	if len(got) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(got))
	}
	for i, want := range []*models.Task{first, second, third} {
		if got[0].Tasks[i] != want {
			t.Errorf("Position %d: expected %s, got %s", i, want.Title, got[0].Tasks[i].Title)
		}
	}
}

func TestSections_Empty(t *testing.T) {
	t.Parallel()

	if got := Sections(nil, referenceNow, calendar.UTC()); len(got) != 0 {
		t.Errorf("Expected no sections, got %d", len(got))
	}
}

func TestSectionsWithTitles(t *testing.T) {
	t.Parallel()

	titles := SectionTitles{Overdue: "Late!"}
	got := SectionsWithTitles([]*models.Task{
		taskDue("a", referenceNow.AddDate(0, 0, -3)),
		taskDue("b", referenceNow),
	}, referenceNow, calendar.UTC(), titles)

	if got[0].Title != "Late!" {
		t.Errorf("Expected custom overdue title, got %q", got[0].Title)
	}
	if got[1].Title != "Today" {
		t.Errorf("Expected fallback title for today, got %q", got[1].Title)
	}
}
