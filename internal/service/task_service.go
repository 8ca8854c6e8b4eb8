package service

import (
	"errors"
	"fmt"
	"time"

	"telofy/internal/model"
	"telofy/internal/store"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrObjectiveNotFound = errors.New("objective not found")
	ErrTaskClosed        = errors.New("task is already closed")
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	ObjectiveID     string
	PillarID        string
	RitualID        string
	Title           string
	Description     string
	WhyItMatters    string
	ScheduledAt     time.Time
	DurationMinutes int
}

// TaskService wraps task lifecycle logic and feeds deviations into the
// status engine.
type TaskService struct {
	tasks      *store.TaskStore
	objectives *store.ObjectiveStore
	status     *StatusService
	now        func() time.Time
}

func NewTaskService(tasks *store.TaskStore, objectives *store.ObjectiveStore, status *StatusService, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{tasks: tasks, objectives: objectives, status: status, now: now}
}

func (s *TaskService) CreateTask(input TaskInput) (model.Task, error) {
	if input.Title == "" {
		return model.Task{}, fmt.Errorf("title is required")
	}
	obj, ok := s.objectives.Get(input.ObjectiveID)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrObjectiveNotFound, input.ObjectiveID)
	}
	if input.PillarID != "" && !obj.HasPillar(input.PillarID) {
		return model.Task{}, fmt.Errorf("pillar %s does not belong to objective %s", input.PillarID, obj.ID)
	}
	if input.RitualID != "" && !obj.HasRitual(input.RitualID) {
		return model.Task{}, fmt.Errorf("ritual %s does not belong to objective %s", input.RitualID, obj.ID)
	}
	if input.DurationMinutes <= 0 {
		return model.Task{}, fmt.Errorf("duration must be positive")
	}
	scheduled := input.ScheduledAt
	if scheduled.IsZero() {
		scheduled = s.now()
	}

	task := model.Task{
		ID:              model.NewID(),
		ObjectiveID:     obj.ID,
		PillarID:        input.PillarID,
		RitualID:        input.RitualID,
		Title:           input.Title,
		Description:     input.Description,
		WhyItMatters:    input.WhyItMatters,
		ScheduledAt:     scheduled,
		DurationMinutes: input.DurationMinutes,
		Status:          model.TaskPending,
	}
	s.tasks.Add(task)
	return task, nil
}

func (s *TaskService) GetTask(id string) (model.Task, error) {
	task, ok := s.tasks.Get(id)
	if !ok {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

// TasksForDate returns the tasks scheduled on day, ordered by start time.
func (s *TaskService) TasksForDate(day time.Time) []model.Task {
	tasks := s.tasks.ByDate(day)
	sortByStart(tasks)
	return tasks
}

func (s *TaskService) StartTask(id string) (model.Task, error) {
	status := model.TaskInProgress
	task, err := s.transitionOpen(id, store.TaskPatch{Status: &status})
	if err != nil {
		return model.Task{}, err
	}
	task.Status = status
	return task, nil
}

// CompleteTask marks a task as done and resolves its open deviations. Finishing
// after the planned end leaves a resolved delayed deviation behind.
func (s *TaskService) CompleteTask(id string) (model.Task, error) {
	now := s.now()
	status := model.TaskCompleted
	task, err := s.transitionOpen(id, store.TaskPatch{Status: &status, CompletedAt: &now})
	if err != nil {
		return model.Task{}, err
	}

	if now.After(task.EndsAt()) && !s.status.HasDeviation(id, model.DeviationDelayed) {
		s.status.AddDeviation(model.Deviation{TaskID: id, Type: model.DeviationDelayed, DetectedAt: now})
	}
	s.status.ResolveTaskDeviations(id)

	task.Status = status
	task.CompletedAt = &now
	return task, nil
}

// SkipTask closes a task without doing it and records a cancelled deviation.
func (s *TaskService) SkipTask(id, reason string) (model.Task, error) {
	status := model.TaskSkipped
	task, err := s.transitionOpen(id, store.TaskPatch{Status: &status, SkippedReason: &reason})
	if err != nil {
		return model.Task{}, err
	}
	s.status.AddDeviation(model.Deviation{TaskID: id, Type: model.DeviationCancelled})

	task.Status = status
	task.SkippedReason = reason
	return task, nil
}

// SweepOverdue marks pending and in-progress tasks whose planned end is before
// now as overdue, each with one missed deviation. It returns the swept tasks.
func (s *TaskService) SweepOverdue(now time.Time) []model.Task {
	var swept []model.Task
	overdue := model.TaskOverdue
	due := func(t model.Task) bool {
		return (t.Status == model.TaskPending || t.Status == model.TaskInProgress) && now.After(t.EndsAt())
	}
	for _, t := range s.tasks.List() {
		if !due(t) {
			continue
		}
		// The task may have been closed since the listing.
		if _, _, ok := s.tasks.Transition(t.ID, due, store.TaskPatch{Status: &overdue}); !ok {
			continue
		}
		if !s.status.HasDeviation(t.ID, model.DeviationMissed) {
			s.status.AddDeviation(model.Deviation{TaskID: t.ID, Type: model.DeviationMissed, DetectedAt: now})
		}
		t.Status = overdue
		swept = append(swept, t)
	}
	return swept
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(id string) error {
	if !s.tasks.Remove(id) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

// transitionOpen applies patch if the task is still open and returns the task as
// it was before.
func (s *TaskService) transitionOpen(id string, patch store.TaskPatch) (model.Task, error) {
	task, found, applied := s.tasks.Transition(id, func(t model.Task) bool { return t.Status.Open() }, patch)
	if !found {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !applied {
		return model.Task{}, fmt.Errorf("%w: %s is %s", ErrTaskClosed, id, task.Status)
	}
	return task, nil
}
