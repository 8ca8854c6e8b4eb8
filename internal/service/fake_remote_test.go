package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"telofy/internal/auth"
	"telofy/internal/model"
	"telofy/internal/remote"
	"telofy/internal/store"
)

// fakeRemote is an in-memory remote store that records every call.
type fakeRemote struct {
	mu sync.Mutex

	objectives []remote.ObjectiveDetail
	tasks      []remote.TaskSummary
	calls      []string

	// errs fails a call by its recorded name, e.g. "GetObjectives" or
	// "CreateTask:t1".
	errs map[string]error
	// gate, when set, blocks GetObjectives until closed; entered is signalled
	// first.
	gate    chan struct{}
	entered chan struct{}
	now     time.Time
}

var _ remote.Client = (*fakeRemote)(nil)

func newFakeRemote(now time.Time) *fakeRemote {
	return &fakeRemote{errs: make(map[string]error), now: now}
}

func (f *fakeRemote) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeRemote) failWith(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeRemote) GetObjectives(ctx context.Context) ([]remote.ObjectiveSummary, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	if err := f.record("GetObjectives"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.ObjectiveSummary, 0, len(f.objectives))
	for _, o := range f.objectives {
		out = append(out, remote.ObjectiveSummary{ID: o.ID, Name: o.Name, Category: o.Category, Status: o.Status})
	}
	return out, nil
}

func (f *fakeRemote) GetObjective(ctx context.Context, id string) (*remote.ObjectiveDetail, error) {
	if err := f.record("GetObjective:" + id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.objectives {
		if o.ID == id {
			detail := o
			return &detail, nil
		}
	}
	return nil, &remote.StatusError{Code: 404, Message: "objective not found"}
}

func (f *fakeRemote) CreateObjective(ctx context.Context, req remote.CreateObjectiveRequest) (*remote.ObjectiveDetail, error) {
	if err := f.record("CreateObjective:" + req.ID); err != nil {
		return nil, err
	}
	ts := formatTime(f.now)
	detail := remote.ObjectiveDetail{
		ID:                     req.ID,
		Name:                   req.Name,
		Category:               req.Category,
		Description:            req.Description,
		TargetOutcome:          req.TargetOutcome,
		StartDate:              ts,
		EndDate:                req.EndDate,
		DailyCommitmentMinutes: req.DailyCommitmentMinutes,
		Status:                 string(model.StatusOnTrack),
		CreatedAt:              ts,
		UpdatedAt:              ts,
		Pillars:                req.Pillars,
		Metrics:                req.Metrics,
		Rituals:                req.Rituals,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objectives = append(f.objectives, detail)
	return &detail, nil
}

func (f *fakeRemote) GetTasks(ctx context.Context, date string) ([]remote.TaskSummary, error) {
	if err := f.record("GetTasks:" + date); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.TaskSummary
	for _, t := range f.tasks {
		at, err := time.Parse(time.RFC3339Nano, t.ScheduledAt)
		if err != nil || at.UTC().Format("2006-01-02") == date {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateTask(ctx context.Context, req remote.CreateTaskRequest) (*remote.TaskSummary, error) {
	if err := f.record("CreateTask:" + req.ID); err != nil {
		return nil, err
	}
	summary := remote.TaskSummary{
		ID:              req.ID,
		ObjectiveID:     req.ObjectiveID,
		PillarID:        req.PillarID,
		RitualID:        req.RitualID,
		Title:           req.Title,
		Description:     req.Description,
		WhyItMatters:    req.WhyItMatters,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          string(model.TaskPending),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, summary)
	return &summary, nil
}

func (f *fakeRemote) UpdateTask(ctx context.Context, id string, req remote.UpdateTaskRequest) (*remote.TaskSummary, error) {
	if err := f.record("UpdateTask:" + id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = req.Status
			f.tasks[i].CompletedAt = req.CompletedAt
			f.tasks[i].SkippedReason = req.SkippedReason
			out := f.tasks[i]
			return &out, nil
		}
	}
	return nil, &remote.StatusError{Code: 404, Message: fmt.Sprintf("task %s not found", id)}
}

func (f *fakeRemote) task(id string) (remote.TaskSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return remote.TaskSummary{}, false
}

func (f *fakeRemote) hasObjective(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.objectives {
		if o.ID == id {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")

// harness wires the services over in-memory stores at a fixed clock.
type harness struct {
	now     time.Time
	stores  *store.Stores
	remote  *fakeRemote
	session *auth.Session
	sync    *SyncService
	status  *StatusService
	tasks   *TaskService
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{now: testNow}
	clock := func() time.Time { return h.now }

	stores, err := store.OpenAll(context.Background(), store.Options{Logger: quietLogger(), Now: clock})
	if err != nil {
		t.Fatalf("OpenAll: %v", err)
	}
	h.stores = stores
	h.remote = newFakeRemote(testNow)
	h.session = auth.NewSession("token")
	h.sync = NewSyncService(SyncConfig{
		Remote:     h.remote,
		Auth:       h.session,
		Objectives: stores.Objectives,
		Tasks:      stores.Tasks,
		Logger:     quietLogger(),
		Now:        clock,
		Location:   time.UTC,
	})
	h.status = NewStatusService(stores.Status, quietLogger(), clock)
	h.tasks = NewTaskService(stores.Tasks, stores.Objectives, h.status, clock)
	return h
}

func (h *harness) addLocalObjective(id string) model.Objective {
	o := model.Objective{
		ID:       id,
		Name:     "Objective " + id,
		Category: model.CategoryCareer,
		Timeframe: model.TimeFrame{
			StartDate:              testNow.Add(-24 * time.Hour),
			DailyCommitmentMinutes: 90,
		},
		Priority:  3,
		Pillars:   []model.Pillar{{ID: id + "-pillar", Name: "Skills", Weight: 1}},
		Status:    model.StatusOnTrack,
		CreatedAt: testNow.Add(-24 * time.Hour),
		UpdatedAt: testNow.Add(-24 * time.Hour),
	}
	h.stores.Objectives.Add(o)
	return o
}

func (h *harness) addLocalTask(id, objectiveID string, at time.Time) model.Task {
	t := model.Task{
		ID:              id,
		ObjectiveID:     objectiveID,
		Title:           "Task " + id,
		ScheduledAt:     at,
		DurationMinutes: 30,
		Status:          model.TaskPending,
	}
	h.stores.Tasks.Add(t)
	return t
}

func (h *harness) addRemoteObjective(id string) {
	ts := formatTime(testNow.Add(-48 * time.Hour))
	h.remote.objectives = append(h.remote.objectives, remote.ObjectiveDetail{
		ID:        id,
		Name:      "Remote " + id,
		Category:  string(model.CategoryHealth),
		StartDate: ts,
		Status:    string(model.StatusOnTrack),
		CreatedAt: ts,
		UpdatedAt: ts,
		Rituals:   []remote.RitualPayload{{ID: id + "-ritual", Name: "Walk", Frequency: "daily", EstimatedMinutes: 20}},
	})
}

func (h *harness) addRemoteTask(id, objectiveID string, at time.Time, status model.TaskStatus) {
	h.remote.tasks = append(h.remote.tasks, remote.TaskSummary{
		ID:              id,
		ObjectiveID:     objectiveID,
		Title:           "Remote task " + id,
		ScheduledAt:     formatTime(at),
		DurationMinutes: 25,
		Status:          string(status),
	})
}
