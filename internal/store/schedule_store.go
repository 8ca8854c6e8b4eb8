package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"telofy/internal/model"
)

type scheduleState struct {
	TimeBlocks []model.TimeBlock `json:"timeBlocks"`
}

// TimeBlockPatch is a field-level update. Nil fields are left untouched.
type TimeBlockPatch struct {
	StartTime     *string
	EndTime       *string
	Type          *model.TimeBlockType
	IsRecurring   *bool
	RecurringDays []int
}

// ScheduleStore keeps the daily time blocks.
type ScheduleStore struct {
	g *guarded[scheduleState]
}

// OpenScheduleStore restores time blocks from opts.Persistence, if any.
func OpenScheduleStore(ctx context.Context, opts Options) (*ScheduleStore, error) {
	g, err := newGuarded(ctx, KeySchedule, scheduleState{}, opts)
	if err != nil {
		return nil, err
	}
	return &ScheduleStore{g: g}, nil
}

func (s *ScheduleStore) List() []model.TimeBlock {
	var out []model.TimeBlock
	s.g.read(func(st scheduleState) { out = cloneAll(st.TimeBlocks) })
	return out
}

// Add validates and stores a block. A missing id is generated.
func (s *ScheduleStore) Add(b model.TimeBlock) (model.TimeBlock, error) {
	if err := b.Validate(); err != nil {
		return model.TimeBlock{}, fmt.Errorf("add time block: %w", err)
	}
	if b.ID == "" {
		b.ID = model.NewID()
	}
	ok := s.g.write(func(st *scheduleState) bool {
		if indexOf(st.TimeBlocks, b.ID) >= 0 {
			return false
		}
		st.TimeBlocks = appended(st.TimeBlocks, b.Clone())
		return true
	})
	if !ok {
		return model.TimeBlock{}, fmt.Errorf("add time block: id %s already exists", b.ID)
	}
	return b.Clone(), nil
}

// Update merges patch into the block. Unknown ids and patches that would make
// the block invalid change nothing and report false.
func (s *ScheduleStore) Update(id string, patch TimeBlockPatch) bool {
	return s.g.write(func(st *scheduleState) bool {
		i := indexOf(st.TimeBlocks, id)
		if i < 0 {
			return false
		}
		next := st.TimeBlocks[i].Clone()
		if patch.StartTime != nil {
			next.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			next.EndTime = *patch.EndTime
		}
		if patch.Type != nil {
			next.Type = *patch.Type
		}
		if patch.IsRecurring != nil {
			next.IsRecurring = *patch.IsRecurring
		}
		if patch.RecurringDays != nil {
			next.RecurringDays = append([]int(nil), patch.RecurringDays...)
		}
		if next.Validate() != nil {
			return false
		}
		st.TimeBlocks = replaced(st.TimeBlocks, i, next)
		return true
	})
}

func (s *ScheduleStore) Remove(id string) bool {
	return s.g.write(func(st *scheduleState) bool {
		i := indexOf(st.TimeBlocks, id)
		if i < 0 {
			return false
		}
		st.TimeBlocks = removed(st.TimeBlocks, i)
		return true
	})
}

// ForWeekday returns the blocks that apply on day, ordered by start time.
func (s *ScheduleStore) ForWeekday(day time.Weekday) []model.TimeBlock {
	var out []model.TimeBlock
	s.g.read(func(st scheduleState) {
		out = cloneWhere(st.TimeBlocks, func(b model.TimeBlock) bool { return b.OccursOn(day) })
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}
