package remote

// Wire shapes exchanged with the remote store. Timestamps are RFC 3339
// strings; mapping them into local entities is the caller's job.

// ObjectiveSummary is one entry of the objective listing.
type ObjectiveSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Status    string `json:"status,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type PillarPayload struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	Progress    float64 `json:"progress"`
}

type MetricPayload struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Type            string  `json:"type"`
	Target          float64 `json:"target"`
	TargetDirection string  `json:"targetDirection"`
	Current         float64 `json:"current"`
	Source          string  `json:"source"`
	PillarID        string  `json:"pillarId,omitempty"`
}

type RitualPayload struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Frequency        string `json:"frequency"`
	DaysOfWeek       []int  `json:"daysOfWeek,omitempty"`
	TimesPerPeriod   int    `json:"timesPerPeriod,omitempty"`
	CurrentStreak    int    `json:"currentStreak,omitempty"`
	LongestStreak    int    `json:"longestStreak,omitempty"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	PillarID         string `json:"pillarId,omitempty"`
}

// ObjectiveDetail is the full objective including nested sub-entities.
type ObjectiveDetail struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	Category               string          `json:"category"`
	Description            string          `json:"description,omitempty"`
	TargetOutcome          string          `json:"targetOutcome,omitempty"`
	StartDate              string          `json:"startDate"`
	EndDate                *string         `json:"endDate,omitempty"`
	DailyCommitmentMinutes int             `json:"dailyCommitmentMinutes,omitempty"`
	Status                 string          `json:"status,omitempty"`
	Priority               int             `json:"priority,omitempty"`
	IsPaused               bool            `json:"isPaused,omitempty"`
	CreatedAt              string          `json:"createdAt"`
	UpdatedAt              string          `json:"updatedAt"`
	Pillars                []PillarPayload `json:"pillars,omitempty"`
	Metrics                []MetricPayload `json:"metrics,omitempty"`
	Rituals                []RitualPayload `json:"rituals,omitempty"`
}

// CreateObjectiveRequest carries the client-assigned id so the remote side
// never reassigns it.
type CreateObjectiveRequest struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	Category               string          `json:"category"`
	Description            string          `json:"description"`
	TargetOutcome          string          `json:"targetOutcome"`
	EndDate                *string         `json:"endDate,omitempty"`
	DailyCommitmentMinutes int             `json:"dailyCommitmentMinutes"`
	Pillars                []PillarPayload `json:"pillars"`
	Metrics                []MetricPayload `json:"metrics"`
	Rituals                []RitualPayload `json:"rituals"`
}

// TaskSummary is one entry of the task listing for a date.
type TaskSummary struct {
	ID              string  `json:"id"`
	ObjectiveID     string  `json:"objectiveId"`
	PillarID        string  `json:"pillarId,omitempty"`
	RitualID        string  `json:"ritualId,omitempty"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	WhyItMatters    string  `json:"whyItMatters,omitempty"`
	ScheduledAt     string  `json:"scheduledAt"`
	DurationMinutes int     `json:"durationMinutes"`
	Status          string  `json:"status"`
	CompletedAt     *string `json:"completedAt,omitempty"`
	SkippedReason   string  `json:"skippedReason,omitempty"`
}

type CreateTaskRequest struct {
	ID              string `json:"id"`
	ObjectiveID     string `json:"objectiveId"`
	PillarID        string `json:"pillarId,omitempty"`
	RitualID        string `json:"ritualId,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	WhyItMatters    string `json:"whyItMatters,omitempty"`
	ScheduledAt     string `json:"scheduledAt"`
	DurationMinutes int    `json:"durationMinutes"`
}

// UpdateTaskRequest always carries all three status fields; a null
// completedAt or empty skippedReason clears the remote value.
type UpdateTaskRequest struct {
	Status        string  `json:"status"`
	CompletedAt   *string `json:"completedAt"`
	SkippedReason string  `json:"skippedReason"`
}

type objectivesEnvelope struct {
	Objectives []ObjectiveSummary `json:"objectives"`
}

type objectiveEnvelope struct {
	Objective ObjectiveDetail `json:"objective"`
}

type tasksEnvelope struct {
	Tasks []TaskSummary `json:"tasks"`
}

type taskEnvelope struct {
	Task TaskSummary `json:"task"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
