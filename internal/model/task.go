package model

import "time"

// TaskStatus is the execution state of a single task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
	TaskOverdue    TaskStatus = "overdue"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskSkipped, TaskOverdue:
		return true
	}
	return false
}

// Open reports whether the task can still be worked on.
func (s TaskStatus) Open() bool {
	return s == TaskPending || s == TaskInProgress || s == TaskOverdue
}

// Task is an actionable, time-bound item derived from an objective.
type Task struct {
	ID              string     `json:"id"`
	ObjectiveID     string     `json:"objectiveId"`
	PillarID        string     `json:"pillarId,omitempty"`
	RitualID        string     `json:"ritualId,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	WhyItMatters    string     `json:"whyItMatters,omitempty"`
	ScheduledAt     time.Time  `json:"scheduledAt"`
	DurationMinutes int        `json:"durationMinutes"`
	Status          TaskStatus `json:"status"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	SkippedReason   string     `json:"skippedReason,omitempty"`
	// SyncedAt is set once the remote store is known to hold the task.
	SyncedAt        *time.Time `json:"syncedAt,omitempty"`
}

func (t Task) EntityID() string { return t.ID }

func (t Task) Clone() Task {
	t.CompletedAt = cloneTime(t.CompletedAt)
	t.SyncedAt = cloneTime(t.SyncedAt)
	return t
}

// EndsAt is the planned end of the task.
func (t Task) EndsAt() time.Time {
	return t.ScheduledAt.Add(time.Duration(t.DurationMinutes) * time.Minute)
}

// ScheduledOn reports whether the task is scheduled on the calendar day of
// day, evaluated in day's location.
func (t Task) ScheduledOn(day time.Time) bool {
	y1, m1, d1 := t.ScheduledAt.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
