package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"telofy/internal/model"
	"telofy/internal/store"
)

// ObjectiveInput represents data required to create an objective.
type ObjectiveInput struct {
	Name                   string
	Category               model.ObjectiveCategory
	Description            string
	TargetOutcome          string
	StartDate              time.Time
	EndDate                *time.Time
	DailyCommitmentMinutes int
	Priority               int
	Pillars                []model.Pillar
	Metrics                []model.Metric
	Rituals                []model.Ritual
}

// Uploader pushes a new objective to the remote store as soon as it exists.
type Uploader interface {
	UploadObjective(ctx context.Context, o model.Objective) error
}

type ObjectiveService struct {
	objectives *store.ObjectiveStore
	status     *StatusService
	uploader   Uploader
	logger     *log.Logger
	now        func() time.Time
}

// NewObjectiveService wires the objective workflows. uploader may be nil when
// remote sync is disabled.
func NewObjectiveService(objectives *store.ObjectiveStore, status *StatusService, uploader Uploader, logger *log.Logger, now func() time.Time) *ObjectiveService {
	if logger == nil {
		logger = log.New(os.Stderr, "[objectives] ", log.LstdFlags)
	}
	if now == nil {
		now = time.Now
	}
	return &ObjectiveService{objectives: objectives, status: status, uploader: uploader, logger: logger, now: now}
}

// CreateObjective assigns ids to the objective and every nested entity, fills
// defaults and stores it. An upload failure is not fatal; the next sync
// retries it.
func (s *ObjectiveService) CreateObjective(ctx context.Context, input ObjectiveInput) (model.Objective, error) {
	if input.Name == "" {
		return model.Objective{}, fmt.Errorf("name is required")
	}
	category := input.Category
	if category == "" {
		category = model.CategoryCustom
	}
	if !category.Valid() {
		return model.Objective{}, fmt.Errorf("unknown category %q", input.Category)
	}
	if input.Priority < 0 || input.Priority > 5 {
		return model.Objective{}, fmt.Errorf("priority %d out of range 1-5", input.Priority)
	}

	now := s.now()
	o := model.Objective{
		ID:            model.NewID(),
		Name:          input.Name,
		Category:      category,
		Description:   input.Description,
		TargetOutcome: input.TargetOutcome,
		Timeframe: model.TimeFrame{
			StartDate:              input.StartDate,
			EndDate:                input.EndDate,
			DailyCommitmentMinutes: input.DailyCommitmentMinutes,
		},
		Priority:  input.Priority,
		Pillars:   make([]model.Pillar, 0, len(input.Pillars)),
		Metrics:   make([]model.Metric, 0, len(input.Metrics)),
		Rituals:   make([]model.Ritual, 0, len(input.Rituals)),
		Status:    model.StatusOnTrack,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if o.Timeframe.StartDate.IsZero() {
		o.Timeframe.StartDate = now
	}
	if o.Timeframe.DailyCommitmentMinutes <= 0 {
		o.Timeframe.DailyCommitmentMinutes = defaultDailyCommitmentMinutes
	}
	if o.Priority == 0 {
		o.Priority = defaultPriority
	}

	// Metrics and rituals may point at pillars by their input id.
	pillarIDs := make(map[string]string, len(input.Pillars))
	for _, p := range input.Pillars {
		id := model.NewID()
		if p.ID != "" {
			pillarIDs[p.ID] = id
		}
		p.ID = id
		o.Pillars = append(o.Pillars, p)
	}
	for _, m := range input.Metrics {
		m.ID = model.NewID()
		m.PillarID = pillarIDs[m.PillarID]
		if m.History == nil {
			m.History = []model.MetricPoint{}
		}
		o.Metrics = append(o.Metrics, m)
	}
	for _, r := range input.Rituals {
		r.ID = model.NewID()
		r.PillarID = pillarIDs[r.PillarID]
		if r.CompletionHistory == nil {
			r.CompletionHistory = []time.Time{}
		}
		o.Rituals = append(o.Rituals, r)
	}

	s.objectives.Add(o)
	if s.uploader != nil {
		if err := s.uploader.UploadObjective(ctx, o); err != nil {
			s.logger.Printf("[warn] objective %s stays local until the next sync: %v", o.ID, err)
		}
	}
	return o.Clone(), nil
}

func (s *ObjectiveService) List() []model.Objective {
	return s.objectives.List()
}

// Active returns the active objective.
func (s *ObjectiveService) Active() (model.Objective, error) {
	o, ok := s.objectives.Active()
	if !ok {
		return model.Objective{}, ErrObjectiveNotFound
	}
	return o, nil
}

func (s *ObjectiveService) SetActive(id string) error {
	if !s.objectives.SetActive(id) {
		return fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}
	return nil
}

// Pause flags the objective as paused and overrides the status.
func (s *ObjectiveService) Pause(id string) error {
	paused := true
	status := model.StatusPaused
	if !s.objectives.Update(id, store.ObjectivePatch{IsPaused: &paused, Status: &status}) {
		return fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}
	s.status.SetCurrentStatus(status)
	return nil
}

// Resume clears the pause and derives the status from open deviations.
func (s *ObjectiveService) Resume(id string) error {
	if _, ok := s.objectives.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}
	status := s.status.Recompute()
	paused := false
	s.objectives.Update(id, store.ObjectivePatch{IsPaused: &paused, Status: &status})
	return nil
}

// Recalibrate marks the objective as being replanned.
func (s *ObjectiveService) Recalibrate(id string) error {
	status := model.StatusRecalibrating
	if !s.objectives.Update(id, store.ObjectivePatch{Status: &status}) {
		return fmt.Errorf("%w: %s", ErrObjectiveNotFound, id)
	}
	s.status.SetCurrentStatus(status)
	return nil
}
