package service

import (
	"log"
	"os"
	"time"

	"telofy/internal/model"
	"telofy/internal/store"
)

// DeriveStatus is the status reducer. A manual override wins; otherwise any
// unresolved deviation means deviation_detected and none means on_track.
func DeriveStatus(deviations []model.Deviation, override *model.ObjectiveStatus) model.ObjectiveStatus {
	if override != nil {
		return *override
	}
	if countUnresolved(deviations) > 0 {
		return model.StatusDeviationDetected
	}
	return model.StatusOnTrack
}

func countUnresolved(deviations []model.Deviation) int {
	var n int
	for _, d := range deviations {
		if !d.Resolved() {
			n++
		}
	}
	return n
}

// StatusService is the deviation state machine layered on the status store.
//
// AddDeviation recomputes the status without an override, so a manual status
// set through SetCurrentStatus lasts until the next deviation or until the
// last open one is resolved.
type StatusService struct {
	store  *store.StatusStore
	logger *log.Logger
	now    func() time.Time
}

func NewStatusService(st *store.StatusStore, logger *log.Logger, now func() time.Time) *StatusService {
	if logger == nil {
		logger = log.New(os.Stderr, "[status] ", log.LstdFlags)
	}
	if now == nil {
		now = time.Now
	}
	return &StatusService{store: st, logger: logger, now: now}
}

func (s *StatusService) CurrentStatus() model.ObjectiveStatus {
	return s.store.Snapshot().CurrentStatus
}

func (s *StatusService) Deviations() []model.Deviation {
	return s.store.Snapshot().Deviations
}

// Unresolved returns the deviations that have no ResolvedAt.
func (s *StatusService) Unresolved() []model.Deviation {
	var out []model.Deviation
	for _, d := range s.store.Snapshot().Deviations {
		if !d.Resolved() {
			out = append(out, d)
		}
	}
	return out
}

// AddDeviation records d and moves to deviation_detected from any state.
// A new deviation is never resolved; missing id and detection time are filled.
func (s *StatusService) AddDeviation(d model.Deviation) model.Deviation {
	if d.ID == "" {
		d.ID = model.NewID()
	}
	if d.DetectedAt.IsZero() {
		d.DetectedAt = s.now()
	}
	d.ResolvedAt = nil

	snap := s.store.Transact(func(st *store.StatusSnapshot) {
		st.Deviations = append(st.Deviations, d.Clone())
		st.CurrentStatus = DeriveStatus(st.Deviations, nil)
	})
	s.logger.Printf("[info] deviation %s (%s) on task %s, status=%s", d.ID, d.Type, d.TaskID, snap.CurrentStatus)
	return d
}

// ResolveDeviation stamps ResolvedAt on the matching deviation. Once no
// deviation is open the status is forced to on_track; otherwise it is left
// as it was. Resolving again refreshes the timestamp.
func (s *StatusService) ResolveDeviation(id string) model.ObjectiveStatus {
	now := s.now()
	snap := s.store.Transact(func(st *store.StatusSnapshot) {
		for i := range st.Deviations {
			if st.Deviations[i].ID == id {
				at := now
				st.Deviations[i].ResolvedAt = &at
			}
		}
		settleResolved(st)
	})
	s.logger.Printf("[info] resolved deviation %s, status=%s", id, snap.CurrentStatus)
	return snap.CurrentStatus
}

// ResolveTaskDeviations resolves every open deviation of taskID in one step.
func (s *StatusService) ResolveTaskDeviations(taskID string) int {
	now := s.now()
	var resolved int
	s.store.Transact(func(st *store.StatusSnapshot) {
		for i := range st.Deviations {
			d := &st.Deviations[i]
			if d.TaskID == taskID && !d.Resolved() {
				at := now
				d.ResolvedAt = &at
				resolved++
			}
		}
		settleResolved(st)
	})
	return resolved
}

func settleResolved(st *store.StatusSnapshot) {
	if countUnresolved(st.Deviations) == 0 {
		st.CurrentStatus = model.StatusOnTrack
	}
}

// HasDeviation reports whether taskID already has a deviation of type typ.
func (s *StatusService) HasDeviation(taskID string, typ model.DeviationType) bool {
	for _, d := range s.store.Snapshot().Deviations {
		if d.TaskID == taskID && d.Type == typ {
			return true
		}
	}
	return false
}

// SetCurrentStatus overrides the status directly, e.g. for paused or
// recalibrating. The override is not sticky.
func (s *StatusService) SetCurrentStatus(status model.ObjectiveStatus) {
	s.store.Transact(func(st *store.StatusSnapshot) {
		st.CurrentStatus = DeriveStatus(st.Deviations, &status)
	})
	s.logger.Printf("[info] status set to %s", status)
}

// Recompute drops any manual override and derives the status again.
func (s *StatusService) Recompute() model.ObjectiveStatus {
	return s.store.Transact(func(st *store.StatusSnapshot) {
		st.CurrentStatus = DeriveStatus(st.Deviations, nil)
	}).CurrentStatus
}

// AddDailyStatus appends a daily snapshot.
func (s *StatusService) AddDailyStatus(ds model.DailyStatus) {
	s.store.AddDailyStatus(ds)
}

// DailyStatus returns the snapshot of objectiveID for day's date.
func (s *StatusService) DailyStatus(day time.Time, objectiveID string) (model.DailyStatus, bool) {
	return s.store.DailyStatus(day, objectiveID)
}

// TodayStatus returns the first snapshot recorded for now's date.
func (s *StatusService) TodayStatus(now time.Time) (model.DailyStatus, bool) {
	return s.store.TodayStatus(now)
}
