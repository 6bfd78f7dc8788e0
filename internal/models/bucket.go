package models

// Bucket is a coarse, time-relative classification of a task
type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketToday     Bucket = "today"
	BucketNext7Days Bucket = "next7Days"
	BucketLater     Bucket = "later"
	BucketNoDate    Bucket = "noDate"
	// BucketInbox names the all-tasks view. It is never the result of classifying a task.
	BucketInbox Bucket = "inbox"
)

// TaskFilter selects which tasks a view shows before they are grouped into sections
type TaskFilter string

const (
	TaskFilterInbox     TaskFilter = "inbox"
	TaskFilterToday     TaskFilter = "today"
	TaskFilterUpcoming  TaskFilter = "upcoming"
	TaskFilterSomeday   TaskFilter = "someday"
	TaskFilterOpen      TaskFilter = "open"
	TaskFilterCompleted TaskFilter = "completed"
)

// Section is a bucket paired with its ordered tasks, produced for display only
type Section struct {
	Bucket Bucket  `json:"bucket"`
	Title  string  `json:"title"`
	Tasks  []*Task `json:"tasks"`
}
