package model

import "time"

// ObjectiveStatus is the execution-health signal.
type ObjectiveStatus string

const (
	StatusOnTrack           ObjectiveStatus = "on_track"
	StatusDeviationDetected ObjectiveStatus = "deviation_detected"
	StatusRecalibrating     ObjectiveStatus = "recalibrating"
	StatusPaused            ObjectiveStatus = "paused"
)

// Valid reports whether s is a known status.
func (s ObjectiveStatus) Valid() bool {
	switch s {
	case StatusOnTrack, StatusDeviationDetected, StatusRecalibrating, StatusPaused:
		return true
	}
	return false
}

// DeviationType classifies how a task departed from the plan.
type DeviationType string

const (
	DeviationMissed    DeviationType = "missed"
	DeviationDelayed   DeviationType = "delayed"
	DeviationPartial   DeviationType = "partial"
	DeviationCancelled DeviationType = "cancelled"
)

// Deviation records a departure from planned execution for one task.
type Deviation struct {
	ID           string        `json:"id"`
	TaskID       string        `json:"taskId"`
	Type         DeviationType `json:"type"`
	DetectedAt   time.Time     `json:"detectedAt"`
	ResolvedAt   *time.Time    `json:"resolvedAt,omitempty"`
	AISuggestion string        `json:"aiSuggestion,omitempty"`
}

func (d Deviation) EntityID() string { return d.ID }

func (d Deviation) Clone() Deviation {
	d.ResolvedAt = cloneTime(d.ResolvedAt)
	return d
}

// Resolved reports whether the deviation has been closed.
func (d Deviation) Resolved() bool { return d.ResolvedAt != nil }

// DailyStatus is an append-only snapshot of one day for one objective.
type DailyStatus struct {
	Date           time.Time       `json:"date"`
	ObjectiveID    string          `json:"objectiveId"`
	Status         ObjectiveStatus `json:"status"`
	CompletedTasks int             `json:"completedTasks"`
	TotalTasks     int             `json:"totalTasks"`
	Deviations     []Deviation     `json:"deviations"`
	Notes          string          `json:"notes,omitempty"`
}

func (s DailyStatus) Clone() DailyStatus {
	if s.Deviations != nil {
		devs := make([]Deviation, len(s.Deviations))
		for i, d := range s.Deviations {
			devs[i] = d.Clone()
		}
		s.Deviations = devs
	}
	return s
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
