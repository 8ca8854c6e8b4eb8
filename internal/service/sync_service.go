package service

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"telofy/internal/model"
	"telofy/internal/remote"
	"telofy/internal/store"
)

// SyncStatus is the phase of the sync engine.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// SyncState is what listeners observe. Error holds the last failure until
// the next successful sync.
type SyncState struct {
	Status     SyncStatus
	LastSyncAt *time.Time
	Error      string
}

// SyncReport counts what one sync did.
type SyncReport struct {
	Uploaded   int
	Updated    int
	Downloaded int
	Deferred   int
	Failed     int
}

// SyncResult is the outcome of SyncAll. Err carries the typed cause on
// failure (ErrNotAuthenticated or *ListFetchError).
type SyncResult struct {
	Success bool
	Error   string
	Err     error
	Report  SyncReport
}

// Authenticator tells the sync engine whether a session exists.
type Authenticator interface {
	Authenticated() bool
}

// SyncConfig holds the collaborators of NewSyncService.
type SyncConfig struct {
	Remote     remote.Client
	Auth       Authenticator
	Objectives *store.ObjectiveStore
	Tasks      *store.TaskStore
	Logger     *log.Logger
	Now        func() time.Time
	// Location decides which calendar day the task snapshot covers.
	Location *time.Location
}

type listener struct {
	id int
	fn func(SyncState)
}

// SyncService reconciles the local stores with the remote store.
type SyncService struct {
	remote     remote.Client
	auth       Authenticator
	objectives *store.ObjectiveStore
	tasks      *store.TaskStore
	logger     *log.Logger
	now        func() time.Time
	loc        *time.Location

	flight singleflight.Group

	mu        sync.Mutex
	state     SyncState
	listeners []listener
	nextID    int
}

func NewSyncService(cfg SyncConfig) *SyncService {
	s := &SyncService{
		remote:     cfg.Remote,
		auth:       cfg.Auth,
		objectives: cfg.Objectives,
		tasks:      cfg.Tasks,
		logger:     cfg.Logger,
		now:        cfg.Now,
		loc:        cfg.Location,
		state:      SyncState{Status: SyncIdle},
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// State returns the current sync state.
func (s *SyncService) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn to be called synchronously on every state
// transition. The returned func unsubscribes.
func (s *SyncService) Subscribe(fn func(SyncState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *SyncService) transition(fn func(*SyncState)) {
	s.mu.Lock()
	fn(&s.state)
	state := copyState(s.state)
	listeners := make([]listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(state)
	}
}

func copyState(st SyncState) SyncState {
	if st.LastSyncAt != nil {
		at := *st.LastSyncAt
		st.LastSyncAt = &at
	}
	return st
}

// SyncAll runs one full reconciliation: objectives first, then tasks.
// Calls that overlap a running sync wait for it and share its result.
func (s *SyncService) SyncAll(ctx context.Context) SyncResult {
	if s.auth == nil || !s.auth.Authenticated() {
		return SyncResult{Error: ErrNotAuthenticated.Error(), Err: ErrNotAuthenticated}
	}
	v, _, _ := s.flight.Do("sync", func() (any, error) {
		return s.run(ctx), nil
	})
	return v.(SyncResult)
}

func (s *SyncService) run(ctx context.Context) SyncResult {
	s.transition(func(st *SyncState) {
		st.Status = SyncSyncing
		st.Error = ""
	})

	var report SyncReport
	known, err := s.syncObjectives(ctx, &report)
	if err == nil {
		err = s.syncTasks(ctx, known, &report)
	}
	if err != nil {
		s.transition(func(st *SyncState) {
			st.Status = SyncError
			st.Error = err.Error()
		})
		s.logger.Printf("[error] sync failed: %v", err)
		return SyncResult{Error: err.Error(), Err: err, Report: report}
	}

	now := s.now()
	s.transition(func(st *SyncState) {
		st.Status = SyncSuccess
		st.LastSyncAt = &now
		st.Error = ""
	})
	s.logger.Printf("[info] sync completed: uploaded=%d updated=%d downloaded=%d deferred=%d failed=%d",
		report.Uploaded, report.Updated, report.Downloaded, report.Deferred, report.Failed)
	return SyncResult{Success: true, Report: report}
}

// syncObjectives reconciles objectives and returns the ids the remote side
// is known to hold afterwards.
func (s *SyncService) syncObjectives(ctx context.Context, report *SyncReport) (map[string]bool, error) {
	summaries, err := s.remote.GetObjectives(ctx)
	if err != nil {
		return nil, &ListFetchError{Entity: "objectives", Err: err}
	}

	known := make(map[string]bool, len(summaries))
	for _, o := range summaries {
		known[o.ID] = true
	}
	local := s.objectives.List()
	localIDs := make(map[string]bool, len(local))
	for _, o := range local {
		localIDs[o.ID] = true
	}

	for _, o := range local {
		if known[o.ID] {
			continue
		}
		s.logger.Printf("[info] uploading objective %s (%s)", o.ID, o.Name)
		if _, err := s.remote.CreateObjective(ctx, objectiveRequest(o)); err != nil {
			s.itemFailed(report, &ItemError{Entity: "objective", ID: o.ID, Op: "create", Err: err})
			continue
		}
		known[o.ID] = true
		report.Uploaded++
	}

	for _, summary := range summaries {
		if localIDs[summary.ID] {
			continue
		}
		s.logger.Printf("[info] downloading objective %s (%s)", summary.ID, summary.Name)
		detail, err := s.remote.GetObjective(ctx, summary.ID)
		if err != nil {
			s.itemFailed(report, &ItemError{Entity: "objective", ID: summary.ID, Op: "get", Err: err})
			continue
		}
		obj, err := objectiveFromDetail(detail)
		if err != nil {
			s.itemFailed(report, &MappingError{Entity: "objective", ID: summary.ID, Err: err})
			continue
		}
		if s.objectives.Add(obj) {
			report.Downloaded++
		}
	}

	return known, nil
}

func (s *SyncService) syncTasks(ctx context.Context, remoteObjectives map[string]bool, report *SyncReport) error {
	day := s.now().In(s.loc)
	date := day.Format("2006-01-02")

	summaries, err := s.remote.GetTasks(ctx, date)
	if err != nil {
		return &ListFetchError{Entity: "tasks", Err: err}
	}
	remoteByID := make(map[string]remote.TaskSummary, len(summaries))
	for _, t := range summaries {
		remoteByID[t.ID] = t
	}

	for _, t := range s.tasks.List() {
		if _, ok := remoteByID[t.ID]; ok {
			continue
		}
		// Tasks off the snapshot date are invisible to it; the marker keeps
		// them from being created twice.
		if t.SyncedAt != nil && !t.ScheduledOn(day) {
			continue
		}
		if !remoteObjectives[t.ObjectiveID] {
			s.logger.Printf("[warn] deferring task %s (%s): objective %s not on remote yet", t.ID, t.Title, t.ObjectiveID)
			report.Deferred++
			continue
		}
		s.logger.Printf("[info] uploading task %s (%s)", t.ID, t.Title)
		s.uploadTask(ctx, t, report)
	}

	local := s.tasks.List()
	localIDs := make(map[string]bool, len(local))
	for _, t := range local {
		localIDs[t.ID] = true
		r, ok := remoteByID[t.ID]
		if !ok {
			continue
		}
		if t.SyncedAt == nil {
			s.tasks.MarkSynced(t.ID, s.now())
		}
		if !statusDiffers(t, r) {
			continue
		}
		s.logger.Printf("[info] pushing task status %s (%s) -> %s", t.ID, t.Title, t.Status)
		if _, err := s.remote.UpdateTask(ctx, t.ID, taskUpdateRequest(t)); err != nil {
			s.itemFailed(report, &ItemError{Entity: "task", ID: t.ID, Op: "update", Err: err})
			continue
		}
		report.Updated++
	}

	var downloads []model.Task
	for _, r := range summaries {
		if localIDs[r.ID] {
			continue
		}
		if _, ok := s.objectives.Get(r.ObjectiveID); !ok {
			s.itemFailed(report, &MappingError{Entity: "task", ID: r.ID, Err: errUnknownObjective(r.ObjectiveID)})
			continue
		}
		task, err := taskFromSummary(r)
		if err != nil {
			s.itemFailed(report, &MappingError{Entity: "task", ID: r.ID, Err: err})
			continue
		}
		s.logger.Printf("[info] downloading task %s (%s)", task.ID, task.Title)
		at := s.now()
		task.SyncedAt = &at
		downloads = append(downloads, task)
	}
	report.Downloaded += s.tasks.AddMany(downloads)

	return nil
}

// uploadTask creates t on the remote and marks it synced. The create payload
// has no status, so a task that already moved past pending gets its status
// pushed in the same step.
func (s *SyncService) uploadTask(ctx context.Context, t model.Task, report *SyncReport) {
	if _, err := s.remote.CreateTask(ctx, taskRequest(t)); err != nil {
		s.itemFailed(report, &ItemError{Entity: "task", ID: t.ID, Op: "create", Err: err})
		return
	}
	s.tasks.MarkSynced(t.ID, s.now())
	report.Uploaded++
	if t.Status == model.TaskPending {
		return
	}
	if _, err := s.remote.UpdateTask(ctx, t.ID, taskUpdateRequest(t)); err != nil {
		s.itemFailed(report, &ItemError{Entity: "task", ID: t.ID, Op: "update", Err: err})
		return
	}
	report.Updated++
}

func (s *SyncService) itemFailed(report *SyncReport, err error) {
	report.Failed++
	s.logger.Printf("[warn] %v", err)
}

// UploadObjective pushes a freshly created objective right away. It does
// nothing without a session; a failure is returned and the next SyncAll
// retries the upload.
func (s *SyncService) UploadObjective(ctx context.Context, o model.Objective) error {
	if s.auth == nil || !s.auth.Authenticated() {
		return nil
	}
	if _, err := s.remote.CreateObjective(ctx, objectiveRequest(o)); err != nil {
		s.logger.Printf("[warn] upload objective %s: %v", o.ID, err)
		return &ItemError{Entity: "objective", ID: o.ID, Op: "create", Err: err}
	}
	s.logger.Printf("[info] uploaded objective %s (%s)", o.ID, o.Name)
	return nil
}

// UploadTasks pushes tasks one by one and returns how many were accepted.
// One failure never stops the rest.
func (s *SyncService) UploadTasks(ctx context.Context, tasks []model.Task) int {
	if s.auth == nil || !s.auth.Authenticated() {
		return 0
	}
	var report SyncReport
	for _, t := range tasks {
		s.uploadTask(ctx, t, &report)
	}
	return report.Uploaded
}
