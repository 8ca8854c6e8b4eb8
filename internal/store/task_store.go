package store

import (
	"context"
	"time"

	"telofy/internal/model"
)

type taskState struct {
	Tasks []model.Task `json:"tasks"`
}

// TaskPatch is a field-level update. Nil fields are left untouched.
type TaskPatch struct {
	Title           *string
	Description     *string
	WhyItMatters    *string
	ScheduledAt     *time.Time
	DurationMinutes *int
	Status          *model.TaskStatus
	CompletedAt     *time.Time
	SkippedReason   *string
}

func (p TaskPatch) apply(t *model.Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.WhyItMatters != nil {
		t.WhyItMatters = *p.WhyItMatters
	}
	if p.ScheduledAt != nil {
		t.ScheduledAt = *p.ScheduledAt
	}
	if p.DurationMinutes != nil {
		t.DurationMinutes = *p.DurationMinutes
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		t.CompletedAt = &at
	}
	if p.SkippedReason != nil {
		t.SkippedReason = *p.SkippedReason
	}
}

// TaskStore keeps tasks across all objectives.
type TaskStore struct {
	g *guarded[taskState]
}

// OpenTaskStore restores tasks from opts.Persistence, if any.
func OpenTaskStore(ctx context.Context, opts Options) (*TaskStore, error) {
	g, err := newGuarded(ctx, KeyTasks, taskState{}, opts)
	if err != nil {
		return nil, err
	}
	return &TaskStore{g: g}, nil
}

func (s *TaskStore) List() []model.Task {
	var out []model.Task
	s.g.read(func(st taskState) { out = cloneAll(st.Tasks) })
	return out
}

func (s *TaskStore) Get(id string) (model.Task, bool) {
	var (
		out   model.Task
		found bool
	)
	s.g.read(func(st taskState) {
		if i := indexOf(st.Tasks, id); i >= 0 {
			out, found = st.Tasks[i].Clone(), true
		}
	})
	return out, found
}

// Add stores a task unless its id is already present.
func (s *TaskStore) Add(t model.Task) bool {
	return s.AddMany([]model.Task{t}) == 1
}

// AddMany stores every task whose id is not yet present and returns how many
// were added. All of them become visible at once.
func (s *TaskStore) AddMany(tasks []model.Task) int {
	var added int
	s.g.write(func(st *taskState) bool {
		next := st.Tasks
		for _, t := range tasks {
			if indexOf(next, t.ID) >= 0 {
				continue
			}
			next = appended(next, t.Clone())
			added++
		}
		st.Tasks = next
		return added > 0
	})
	return added
}

// Update merges patch into the task. Unknown ids are a silent no-op that
// reports false.
func (s *TaskStore) Update(id string, patch TaskPatch) bool {
	return s.g.write(func(st *taskState) bool {
		i := indexOf(st.Tasks, id)
		if i < 0 {
			return false
		}
		next := st.Tasks[i].Clone()
		patch.apply(&next)
		st.Tasks = replaced(st.Tasks, i, next)
		return true
	})
}

// Transition applies patch only when allow accepts the task as stored, with
// the check and the write under one lock. It returns the task as it was
// before the patch, whether the id exists and whether the patch was applied.
func (s *TaskStore) Transition(id string, allow func(model.Task) bool, patch TaskPatch) (prev model.Task, found, applied bool) {
	s.g.write(func(st *taskState) bool {
		i := indexOf(st.Tasks, id)
		if i < 0 {
			return false
		}
		found = true
		prev = st.Tasks[i].Clone()
		if !allow(prev) {
			return false
		}
		next := st.Tasks[i].Clone()
		patch.apply(&next)
		st.Tasks = replaced(st.Tasks, i, next)
		applied = true
		return true
	})
	return prev, found, applied
}

func (s *TaskStore) Remove(id string) bool {
	return s.g.write(func(st *taskState) bool {
		i := indexOf(st.Tasks, id)
		if i < 0 {
			return false
		}
		st.Tasks = removed(st.Tasks, i)
		return true
	})
}

// Complete marks the task completed at the given time.
func (s *TaskStore) Complete(id string, at time.Time) bool {
	status := model.TaskCompleted
	return s.Update(id, TaskPatch{Status: &status, CompletedAt: &at})
}

// Skip marks the task skipped with an optional reason.
func (s *TaskStore) Skip(id, reason string) bool {
	status := model.TaskSkipped
	return s.Update(id, TaskPatch{Status: &status, SkippedReason: &reason})
}

// MarkSynced records that the remote store holds the task. The first mark
// wins; later calls report false.
func (s *TaskStore) MarkSynced(id string, at time.Time) bool {
	return s.g.write(func(st *taskState) bool {
		i := indexOf(st.Tasks, id)
		if i < 0 || st.Tasks[i].SyncedAt != nil {
			return false
		}
		next := st.Tasks[i].Clone()
		next.SyncedAt = &at
		st.Tasks = replaced(st.Tasks, i, next)
		return true
	})
}

// ByDate returns tasks scheduled on day's calendar date in day's location.
func (s *TaskStore) ByDate(day time.Time) []model.Task {
	var out []model.Task
	s.g.read(func(st taskState) {
		out = cloneWhere(st.Tasks, func(t model.Task) bool { return t.ScheduledOn(day) })
	})
	return out
}

func (s *TaskStore) ByObjective(objectiveID string) []model.Task {
	var out []model.Task
	s.g.read(func(st taskState) {
		out = cloneWhere(st.Tasks, func(t model.Task) bool { return t.ObjectiveID == objectiveID })
	})
	return out
}
