package store

import (
	"context"
	"time"

	"telofy/internal/model"
)

// StatusSnapshot is the persisted shape of the status store.
type StatusSnapshot struct {
	DailyStatuses []model.DailyStatus   `json:"dailyStatuses"`
	Deviations    []model.Deviation     `json:"deviations"`
	CurrentStatus model.ObjectiveStatus `json:"currentStatus"`
}

func (s StatusSnapshot) clone() StatusSnapshot {
	out := StatusSnapshot{CurrentStatus: s.CurrentStatus}
	if s.DailyStatuses != nil {
		out.DailyStatuses = make([]model.DailyStatus, len(s.DailyStatuses))
		for i, d := range s.DailyStatuses {
			out.DailyStatuses[i] = d.Clone()
		}
	}
	if s.Deviations != nil {
		out.Deviations = cloneAll(s.Deviations)
	}
	return out
}

// StatusStore holds deviations, daily snapshots and the current status.
type StatusStore struct {
	g *guarded[StatusSnapshot]
}

// OpenStatusStore restores status from opts.Persistence, if any.
// A fresh store starts on track.
func OpenStatusStore(ctx context.Context, opts Options) (*StatusStore, error) {
	g, err := newGuarded(ctx, KeyStatus, StatusSnapshot{CurrentStatus: model.StatusOnTrack}, opts)
	if err != nil {
		return nil, err
	}
	return &StatusStore{g: g}, nil
}

func (s *StatusStore) Snapshot() StatusSnapshot {
	var out StatusSnapshot
	s.g.read(func(st StatusSnapshot) { out = st.clone() })
	return out
}

// Transact applies fn to a private copy of the state and commits the copy as
// one atomic step. It returns the committed state.
func (s *StatusStore) Transact(fn func(*StatusSnapshot)) StatusSnapshot {
	var out StatusSnapshot
	s.g.write(func(st *StatusSnapshot) bool {
		next := st.clone()
		fn(&next)
		*st = next
		out = next.clone()
		return true
	})
	return out
}

// AddDailyStatus appends a snapshot. Daily statuses are never rewritten.
func (s *StatusStore) AddDailyStatus(ds model.DailyStatus) {
	s.g.write(func(st *StatusSnapshot) bool {
		st.DailyStatuses = appended(st.DailyStatuses, ds.Clone())
		return true
	})
}

// DailyStatus returns the snapshot recorded for objectiveID on day's date.
func (s *StatusStore) DailyStatus(day time.Time, objectiveID string) (model.DailyStatus, bool) {
	var (
		out   model.DailyStatus
		found bool
	)
	s.g.read(func(st StatusSnapshot) {
		for _, ds := range st.DailyStatuses {
			if ds.ObjectiveID == objectiveID && model.SameDay(day, ds.Date) {
				out, found = ds.Clone(), true
				return
			}
		}
	})
	return out, found
}

// TodayStatus returns the first snapshot recorded for now's date.
func (s *StatusStore) TodayStatus(now time.Time) (model.DailyStatus, bool) {
	var (
		out   model.DailyStatus
		found bool
	)
	s.g.read(func(st StatusSnapshot) {
		for _, ds := range st.DailyStatuses {
			if model.SameDay(now, ds.Date) {
				out, found = ds.Clone(), true
				return
			}
		}
	})
	return out, found
}
