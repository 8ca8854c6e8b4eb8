package store

import (
	"context"
	"time"

	"telofy/internal/model"
)

type objectiveState struct {
	Objectives        []model.Objective `json:"objectives"`
	ActiveObjectiveID string            `json:"activeObjectiveId,omitempty"`
}

// ObjectivePatch is a field-level update. Nil fields are left untouched.
type ObjectivePatch struct {
	Name          *string
	Category      *model.ObjectiveCategory
	Description   *string
	TargetOutcome *string
	Timeframe     *model.TimeFrame
	Priority      *int
	Pillars       []model.Pillar
	Metrics       []model.Metric
	Rituals       []model.Ritual
	Status        *model.ObjectiveStatus
	IsPaused      *bool
}

func (p ObjectivePatch) apply(o *model.Objective) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Category != nil {
		o.Category = *p.Category
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.TargetOutcome != nil {
		o.TargetOutcome = *p.TargetOutcome
	}
	if p.Timeframe != nil {
		o.Timeframe = *p.Timeframe
	}
	if p.Priority != nil {
		o.Priority = *p.Priority
	}
	if p.Pillars != nil {
		o.Pillars = p.Pillars
	}
	if p.Metrics != nil {
		o.Metrics = p.Metrics
	}
	if p.Rituals != nil {
		o.Rituals = p.Rituals
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.IsPaused != nil {
		o.IsPaused = *p.IsPaused
	}
}

// ObjectiveStore keeps the user's objectives and which one is active.
type ObjectiveStore struct {
	g   *guarded[objectiveState]
	now func() time.Time
}

// OpenObjectiveStore restores objectives from opts.Persistence, if any.
func OpenObjectiveStore(ctx context.Context, opts Options) (*ObjectiveStore, error) {
	g, err := newGuarded(ctx, KeyObjectives, objectiveState{}, opts)
	if err != nil {
		return nil, err
	}
	return &ObjectiveStore{g: g, now: opts.now()}, nil
}

func (s *ObjectiveStore) List() []model.Objective {
	var out []model.Objective
	s.g.read(func(st objectiveState) { out = cloneAll(st.Objectives) })
	return out
}

func (s *ObjectiveStore) Get(id string) (model.Objective, bool) {
	var (
		out   model.Objective
		found bool
	)
	s.g.read(func(st objectiveState) {
		if i := indexOf(st.Objectives, id); i >= 0 {
			out, found = st.Objectives[i].Clone(), true
		}
	})
	return out, found
}

// Add stores a new objective. The first objective becomes active.
// An objective whose id is already present is ignored.
func (s *ObjectiveStore) Add(o model.Objective) bool {
	return s.g.write(func(st *objectiveState) bool {
		if indexOf(st.Objectives, o.ID) >= 0 {
			return false
		}
		st.Objectives = appended(st.Objectives, o.Clone())
		if st.ActiveObjectiveID == "" {
			st.ActiveObjectiveID = o.ID
		}
		return true
	})
}

// Update merges patch into the objective and bumps UpdatedAt. It reports
// false, changing nothing, when id is unknown.
func (s *ObjectiveStore) Update(id string, patch ObjectivePatch) bool {
	return s.g.write(func(st *objectiveState) bool {
		i := indexOf(st.Objectives, id)
		if i < 0 {
			return false
		}
		next := st.Objectives[i].Clone()
		patch.apply(&next)
		next = next.Clone()
		next.UpdatedAt = s.now()
		st.Objectives = replaced(st.Objectives, i, next)
		return true
	})
}

// Remove drops the objective. If it was active, the first remaining one
// becomes active.
func (s *ObjectiveStore) Remove(id string) bool {
	return s.g.write(func(st *objectiveState) bool {
		i := indexOf(st.Objectives, id)
		if i < 0 {
			return false
		}
		st.Objectives = removed(st.Objectives, i)
		if st.ActiveObjectiveID == id {
			st.ActiveObjectiveID = ""
			if len(st.Objectives) > 0 {
				st.ActiveObjectiveID = st.Objectives[0].ID
			}
		}
		return true
	})
}

// SetActive selects the active objective. An empty id clears the selection.
func (s *ObjectiveStore) SetActive(id string) bool {
	return s.g.write(func(st *objectiveState) bool {
		if id != "" && indexOf(st.Objectives, id) < 0 {
			return false
		}
		st.ActiveObjectiveID = id
		return true
	})
}

func (s *ObjectiveStore) Active() (model.Objective, bool) {
	var (
		out   model.Objective
		found bool
	)
	s.g.read(func(st objectiveState) {
		if i := indexOf(st.Objectives, st.ActiveObjectiveID); i >= 0 {
			out, found = st.Objectives[i].Clone(), true
		}
	})
	return out, found
}
