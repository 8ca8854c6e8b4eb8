package model

import "time"

// ObjectiveCategory groups objectives by life area.
type ObjectiveCategory string

const (
	CategoryFitness   ObjectiveCategory = "fitness"
	CategoryCareer    ObjectiveCategory = "career"
	CategoryAcademic  ObjectiveCategory = "academic"
	CategoryHealth    ObjectiveCategory = "health"
	CategoryFinancial ObjectiveCategory = "financial"
	CategoryCreative  ObjectiveCategory = "creative"
	CategoryCustom    ObjectiveCategory = "custom"
)

// Valid reports whether c is a known category.
func (c ObjectiveCategory) Valid() bool {
	switch c {
	case CategoryFitness, CategoryCareer, CategoryAcademic, CategoryHealth,
		CategoryFinancial, CategoryCreative, CategoryCustom:
		return true
	}
	return false
}

// TimeFrame bounds an objective in time and sets the daily budget.
type TimeFrame struct {
	StartDate              time.Time  `json:"startDate"`
	EndDate                *time.Time `json:"endDate,omitempty"`
	DailyCommitmentMinutes int        `json:"dailyCommitmentMinutes"`
}

// Pillar is a weighted area of work inside an objective.
type Pillar struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	Progress    float64 `json:"progress"`
}

// MetricPoint is one recorded metric value.
type MetricPoint struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Metric is a measurable indicator of progress toward an objective.
type Metric struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Unit            string        `json:"unit"`
	Type            string        `json:"type"`
	Target          float64       `json:"target"`
	TargetDirection string        `json:"targetDirection"` // increase, decrease, maintain
	Current         float64       `json:"current"`
	History         []MetricPoint `json:"history"`
	Source          string        `json:"source"`
	PillarID        string        `json:"pillarId,omitempty"`
}

// Ritual is a recurring habit that feeds an objective.
type Ritual struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name"`
	Description           string      `json:"description,omitempty"`
	Frequency             string      `json:"frequency"` // daily, weekly, custom
	DaysOfWeek            []int       `json:"daysOfWeek,omitempty"`
	TimesPerPeriod        int         `json:"timesPerPeriod,omitempty"`
	CurrentStreak         int         `json:"currentStreak"`
	LongestStreak         int         `json:"longestStreak"`
	CompletionsThisPeriod int         `json:"completionsThisPeriod"`
	CompletionHistory     []time.Time `json:"completionHistory"`
	PillarID              string      `json:"pillarId,omitempty"`
	EstimatedMinutes      int         `json:"estimatedMinutes"`
}

// Objective is the root aggregate: what the user is working toward.
type Objective struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      ObjectiveCategory `json:"category"`
	Description   string            `json:"description"`
	TargetOutcome string            `json:"targetOutcome"`
	Timeframe     TimeFrame         `json:"timeframe"`
	Priority      int               `json:"priority"` // 1-5, 5 being highest
	Pillars       []Pillar          `json:"pillars"`
	Metrics       []Metric          `json:"metrics"`
	Rituals       []Ritual          `json:"rituals"`
	Status        ObjectiveStatus   `json:"status"`
	IsPaused      bool              `json:"isPaused"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (o Objective) EntityID() string { return o.ID }

// Clone returns a deep copy so callers can never alias store state.
func (o Objective) Clone() Objective {
	o.Timeframe.EndDate = cloneTime(o.Timeframe.EndDate)
	o.Pillars = cloneSlice(o.Pillars)
	if o.Metrics != nil {
		metrics := make([]Metric, len(o.Metrics))
		for i, m := range o.Metrics {
			m.History = cloneSlice(m.History)
			metrics[i] = m
		}
		o.Metrics = metrics
	}
	if o.Rituals != nil {
		rituals := make([]Ritual, len(o.Rituals))
		for i, r := range o.Rituals {
			r.DaysOfWeek = cloneSlice(r.DaysOfWeek)
			r.CompletionHistory = cloneSlice(r.CompletionHistory)
			rituals[i] = r
		}
		o.Rituals = rituals
	}
	return o
}

// HasPillar reports whether id names one of the objective's pillars.
func (o Objective) HasPillar(id string) bool {
	for _, p := range o.Pillars {
		if p.ID == id {
			return true
		}
	}
	return false
}

// HasRitual reports whether id names one of the objective's rituals.
func (o Objective) HasRitual(id string) bool {
	for _, r := range o.Rituals {
		if r.ID == id {
			return true
		}
	}
	return false
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
