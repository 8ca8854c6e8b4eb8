package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"telofy/internal/model"
	"telofy/internal/remote"
)

var today = testNow.Format("2006-01-02")

func TestSyncUploadsLocalOnlyEntities(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("t1", "o1", testNow.Add(time.Hour))

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	if res.Report.Uploaded != 2 {
		t.Fatalf("Uploaded = %d, want 2", res.Report.Uploaded)
	}
	if !h.remote.hasObjective("o1") {
		t.Fatalf("objective o1 not uploaded")
	}
	got, ok := h.remote.task("t1")
	if !ok {
		t.Fatalf("task t1 not uploaded")
	}
	if got.ObjectiveID != "o1" || got.Title != "Task t1" || got.DurationMinutes != 30 {
		t.Fatalf("uploaded task = %+v", got)
	}
	if calls := h.remote.Calls(); calls[0] != "GetObjectives" {
		t.Fatalf("objectives must be reconciled first, calls = %v", calls)
	}
}

func TestSyncDownloadsRemoteOnlyEntities(t *testing.T) {
	h := newHarness(t)
	h.addRemoteObjective("o2")
	h.addRemoteTask("t2", "o2", testNow.Add(2*time.Hour), model.TaskPending)

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	if res.Report.Downloaded != 2 {
		t.Fatalf("Downloaded = %d, want 2", res.Report.Downloaded)
	}

	o, ok := h.stores.Objectives.Get("o2")
	if !ok {
		t.Fatalf("objective o2 not downloaded")
	}
	if o.Priority != defaultPriority || o.Timeframe.DailyCommitmentMinutes != defaultDailyCommitmentMinutes {
		t.Fatalf("defaults not applied: %+v", o)
	}
	if len(o.Rituals) != 1 || o.Rituals[0].ID != "o2-ritual" || o.Rituals[0].CompletionHistory == nil {
		t.Fatalf("rituals not mapped: %+v", o.Rituals)
	}
	task, ok := h.stores.Tasks.Get("t2")
	if !ok {
		t.Fatalf("task t2 not downloaded")
	}
	if !task.ScheduledAt.Equal(testNow.Add(2 * time.Hour)) {
		t.Fatalf("scheduledAt = %s", task.ScheduledAt)
	}
}

func TestSyncTwoWayRoundIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addRemoteObjective("o2")
	h.addLocalTask("t1", "o1", testNow.Add(time.Hour))
	h.addRemoteTask("t2", "o2", testNow.Add(3*time.Hour), model.TaskPending)

	first := h.sync.SyncAll(context.Background())
	if !first.Success {
		t.Fatalf("first sync failed: %s", first.Error)
	}
	for _, id := range []string{"t1", "t2"} {
		local, ok := h.stores.Tasks.Get(id)
		if !ok {
			t.Fatalf("%s missing locally", id)
		}
		r, ok := h.remote.task(id)
		if !ok {
			t.Fatalf("%s missing remotely", id)
		}
		if statusDiffers(local, r) {
			t.Fatalf("%s status differs after sync: local=%s remote=%s", id, local.Status, r.Status)
		}
	}

	h.remote.resetCalls()
	second := h.sync.SyncAll(context.Background())
	if !second.Success {
		t.Fatalf("second sync failed: %s", second.Error)
	}
	if second.Report != (SyncReport{}) {
		t.Fatalf("second sync did work: %+v", second.Report)
	}
	calls := h.remote.Calls()
	want := []string{"GetObjectives", "GetTasks:" + today}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("second sync calls = %v, want %v", calls, want)
	}
}

func TestSyncPushesLocalStatus(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addRemoteObjective("o1")
	h.addLocalTask("t1", "o1", testNow.Add(-time.Hour))
	h.addRemoteTask("t1", "o1", testNow.Add(-time.Hour), model.TaskSkipped)

	completedAt := testNow.Add(-10 * time.Minute)
	h.stores.Tasks.Complete("t1", completedAt)

	res := h.sync.SyncAll(context.Background())
	if !res.Success || res.Report.Updated != 1 {
		t.Fatalf("result = %+v", res)
	}
	r, _ := h.remote.task("t1")
	if r.Status != string(model.TaskCompleted) {
		t.Fatalf("remote status = %s, local must win", r.Status)
	}
	if r.CompletedAt == nil || *r.CompletedAt != formatTime(completedAt) {
		t.Fatalf("remote completedAt = %v", r.CompletedAt)
	}

	local, _ := h.stores.Tasks.Get("t1")
	if local.Title != "Task t1" {
		t.Fatalf("push must not pull remote fields into the local task: %+v", local)
	}

	h.remote.resetCalls()
	h.sync.SyncAll(context.Background())
	for _, c := range h.remote.Calls() {
		if strings.HasPrefix(c, "UpdateTask") {
			t.Fatalf("status pushed twice: %v", h.remote.Calls())
		}
	}
}

func TestSyncClearsRemoteCompletion(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addRemoteObjective("o1")
	h.addLocalTask("t1", "o1", testNow)
	h.addRemoteTask("t1", "o1", testNow, model.TaskCompleted)
	done := formatTime(testNow)
	h.remote.tasks[0].CompletedAt = &done

	if res := h.sync.SyncAll(context.Background()); !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	r, _ := h.remote.task("t1")
	if r.Status != string(model.TaskPending) || r.CompletedAt != nil {
		t.Fatalf("remote = %+v, want pending with no completedAt", r)
	}
}

func TestSyncObjectivesFetchFailureStopsSync(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("t1", "o1", testNow)
	h.remote.failWith("GetObjectives", errBoom)

	res := h.sync.SyncAll(context.Background())
	if res.Success {
		t.Fatalf("sync should fail")
	}
	if res.Error != "boom" {
		t.Fatalf("Error = %q, want the underlying message", res.Error)
	}
	var lf *ListFetchError
	if !errors.As(res.Err, &lf) || lf.Entity != "objectives" || !errors.Is(res.Err, errBoom) {
		t.Fatalf("Err = %#v", res.Err)
	}
	if calls := h.remote.Calls(); len(calls) != 1 {
		t.Fatalf("no call may follow a failed objective fetch, calls = %v", calls)
	}
	st := h.sync.State()
	if st.Status != SyncError || st.Error != "boom" || st.LastSyncAt != nil {
		t.Fatalf("state = %+v", st)
	}

	h.remote.failWith("GetObjectives", nil)
	if res := h.sync.SyncAll(context.Background()); !res.Success {
		t.Fatalf("retry failed: %s", res.Error)
	}
	st = h.sync.State()
	if st.Status != SyncSuccess || st.Error != "" || st.LastSyncAt == nil || !st.LastSyncAt.Equal(testNow) {
		t.Fatalf("state after success = %+v", st)
	}
}

func TestSyncTaskFetchFailure(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.remote.failWith("GetTasks:"+today, &remote.StatusError{Code: 500})

	res := h.sync.SyncAll(context.Background())
	if res.Success {
		t.Fatalf("sync should fail")
	}
	var lf *ListFetchError
	if !errors.As(res.Err, &lf) || lf.Entity != "tasks" {
		t.Fatalf("Err = %#v", res.Err)
	}
	if !h.remote.hasObjective("o1") {
		t.Fatalf("objective pass should have completed before the task fetch")
	}
}

func TestSyncNotAuthenticated(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.session.Clear()

	var notified int
	h.sync.Subscribe(func(SyncState) { notified++ })

	res := h.sync.SyncAll(context.Background())
	if res.Success || res.Error != "Not authenticated" || !errors.Is(res.Err, ErrNotAuthenticated) {
		t.Fatalf("result = %+v", res)
	}
	if calls := h.remote.Calls(); len(calls) != 0 {
		t.Fatalf("remote called without a session: %v", calls)
	}
	if st := h.sync.State(); st.Status != SyncIdle || st.Error != "" {
		t.Fatalf("state changed: %+v", st)
	}
	if notified != 0 {
		t.Fatalf("listeners notified %d times", notified)
	}
}

func TestSyncItemFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("t1", "o1", testNow)
	h.addLocalTask("t2", "o1", testNow.Add(time.Hour))
	h.remote.failWith("CreateTask:t1", &remote.StatusError{Code: 400, Message: "bad task"})

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("an item failure must not fail the sync: %s", res.Error)
	}
	if res.Report.Failed != 1 || res.Report.Uploaded != 2 {
		t.Fatalf("report = %+v", res.Report)
	}
	if _, ok := h.remote.task("t2"); !ok {
		t.Fatalf("t2 should still be uploaded")
	}

	h.remote.failWith("CreateTask:t1", nil)
	h.sync.SyncAll(context.Background())
	if _, ok := h.remote.task("t1"); !ok {
		t.Fatalf("t1 should upload on the next sync")
	}
}

func TestSyncDefersTasksOfUnsyncedObjective(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("t1", "o1", testNow)
	h.remote.failWith("CreateObjective:o1", errBoom)

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	if res.Report.Deferred != 1 || res.Report.Failed != 1 {
		t.Fatalf("report = %+v", res.Report)
	}
	for _, c := range h.remote.Calls() {
		if c == "CreateTask:t1" {
			t.Fatalf("task uploaded before its objective")
		}
	}
}

func TestSyncSkipsUnmappableRemoteTasks(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addRemoteObjective("o1")
	h.addRemoteTask("bad-status", "o1", testNow, "done")
	h.addRemoteTask("orphan", "o-unknown", testNow, model.TaskPending)
	h.addRemoteTask("good", "o1", testNow, model.TaskPending)
	h.remote.tasks = append(h.remote.tasks, remote.TaskSummary{ID: "bad-time", ObjectiveID: "o1", ScheduledAt: "yesterday", Status: "pending"})

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	if res.Report.Downloaded != 1 || res.Report.Failed != 3 {
		t.Fatalf("report = %+v", res.Report)
	}
	for _, id := range []string{"bad-status", "orphan", "bad-time"} {
		if _, ok := h.stores.Tasks.Get(id); ok {
			t.Fatalf("%s should not be stored", id)
		}
	}
	if _, ok := h.stores.Tasks.Get("good"); !ok {
		t.Fatalf("good task not downloaded")
	}
}

func TestSyncSkipsObjectiveWhoseDetailFails(t *testing.T) {
	h := newHarness(t)
	h.addRemoteObjective("o1")
	h.addRemoteObjective("o2")
	h.remote.failWith("GetObjective:o1", errBoom)

	res := h.sync.SyncAll(context.Background())
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	if _, ok := h.stores.Objectives.Get("o1"); ok {
		t.Fatalf("o1 should not be stored")
	}
	if _, ok := h.stores.Objectives.Get("o2"); !ok {
		t.Fatalf("o2 should be stored")
	}
}

func TestSyncUploadsTasksOffTheSnapshotDateOnce(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("yesterday", "o1", testNow.Add(-24*time.Hour))
	h.addLocalTask("tomorrow", "o1", testNow.Add(24*time.Hour))

	if res := h.sync.SyncAll(context.Background()); !res.Success || res.Report.Uploaded != 3 {
		t.Fatalf("result = %+v", res)
	}
	for _, id := range []string{"yesterday", "tomorrow"} {
		if _, ok := h.remote.task(id); !ok {
			t.Fatalf("%s not uploaded", id)
		}
		if local, _ := h.stores.Tasks.Get(id); local.SyncedAt == nil {
			t.Fatalf("%s not marked synced", id)
		}
	}

	for day := 1; day <= 2; day++ {
		h.now = testNow.Add(time.Duration(day) * 24 * time.Hour)
		h.remote.resetCalls()
		res := h.sync.SyncAll(context.Background())
		if !res.Success || res.Report.Uploaded != 0 {
			t.Fatalf("day %d: result = %+v", day, res)
		}
		for _, c := range h.remote.Calls() {
			if strings.HasPrefix(c, "CreateTask") {
				t.Fatalf("day %d: task uploaded twice: %s", day, c)
			}
		}
	}
}

func TestSyncMarksSnapshotTasksSynced(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addRemoteObjective("o1")
	h.addLocalTask("t1", "o1", testNow)
	h.addRemoteTask("t1", "o1", testNow, model.TaskPending)
	h.addRemoteTask("t2", "o1", testNow, model.TaskPending)

	if res := h.sync.SyncAll(context.Background()); !res.Success {
		t.Fatalf("sync failed: %s", res.Error)
	}
	for _, id := range []string{"t1", "t2"} {
		task, ok := h.stores.Tasks.Get(id)
		if !ok || task.SyncedAt == nil || !task.SyncedAt.Equal(testNow) {
			t.Fatalf("%s syncedAt = %v", id, task.SyncedAt)
		}
	}
}

func TestSyncUploadsStatusOfTasksFinishedOffline(t *testing.T) {
	h := newHarness(t)
	h.addLocalObjective("o1")
	h.addLocalTask("t1", "o1", testNow.Add(-time.Hour))
	h.addLocalTask("t2", "o1", testNow.Add(-2*time.Hour))
	completedAt := testNow.Add(-30 * time.Minute)
	h.stores.Tasks.Complete("t1", completedAt)
	h.stores.Tasks.Skip("t2", "rain")

	first := h.sync.SyncAll(context.Background())
	if !first.Success || first.Report.Uploaded != 3 || first.Report.Updated != 2 {
		t.Fatalf("first sync = %+v", first)
	}
	r, _ := h.remote.task("t1")
	if r.Status != string(model.TaskCompleted) || r.CompletedAt == nil || *r.CompletedAt != formatTime(completedAt) {
		t.Fatalf("remote t1 = %+v", r)
	}
	if r, _ := h.remote.task("t2"); r.Status != string(model.TaskSkipped) || r.SkippedReason != "rain" {
		t.Fatalf("remote t2 = %+v", r)
	}

	h.remote.resetCalls()
	second := h.sync.SyncAll(context.Background())
	if second.Report != (SyncReport{}) {
		t.Fatalf("second sync did work: %+v", second.Report)
	}
	want := []string{"GetObjectives", "GetTasks:" + today}
	if calls := h.remote.Calls(); strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("second sync calls = %v, want %v", calls, want)
	}
}

func TestSyncListenersObserveTransitions(t *testing.T) {
	h := newHarness(t)

	var (
		mu   sync.Mutex
		seen []SyncStatus
	)
	unsubscribe := h.sync.Subscribe(func(st SyncState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st.Status)
	})

	h.sync.SyncAll(context.Background())
	h.remote.failWith("GetObjectives", errBoom)
	h.sync.SyncAll(context.Background())

	want := []SyncStatus{SyncSyncing, SyncSuccess, SyncSyncing, SyncError}
	mu.Lock()
	got := append([]SyncStatus(nil), seen...)
	mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", got, want)
		}
	}

	unsubscribe()
	h.sync.SyncAll(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestSyncListenerMaySubscribeDuringNotification(t *testing.T) {
	h := newHarness(t)
	var inner int
	h.sync.Subscribe(func(st SyncState) {
		if st.Status == SyncSyncing {
			h.sync.Subscribe(func(SyncState) { inner++ })
		}
	})
	h.sync.SyncAll(context.Background())
	if inner != 1 {
		t.Fatalf("inner listener called %d times, want 1 (success only)", inner)
	}
}

func TestSyncConcurrentCallsShareOneRun(t *testing.T) {
	h := newHarness(t)
	h.remote.gate = make(chan struct{})
	h.remote.entered = make(chan struct{}, 2)

	var wg sync.WaitGroup
	results := make([]SyncResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = h.sync.SyncAll(context.Background())
	}()
	<-h.remote.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = h.sync.SyncAll(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(h.remote.gate)
	wg.Wait()

	var fetches int
	for _, c := range h.remote.Calls() {
		if c == "GetObjectives" {
			fetches++
		}
	}
	if fetches != 1 {
		t.Fatalf("GetObjectives called %d times, want 1", fetches)
	}
	if !results[0].Success || !results[1].Success {
		t.Fatalf("results = %+v", results)
	}
}

func TestUploadHelpers(t *testing.T) {
	h := newHarness(t)
	o := h.addLocalObjective("o1")
	t1 := h.addLocalTask("t1", "o1", testNow)
	t2 := h.addLocalTask("t2", "o1", testNow)

	if err := h.sync.UploadObjective(context.Background(), o); err != nil {
		t.Fatalf("UploadObjective: %v", err)
	}
	h.remote.failWith("CreateTask:t1", errBoom)
	if n := h.sync.UploadTasks(context.Background(), []model.Task{t1, t2}); n != 1 {
		t.Fatalf("UploadTasks = %d, want 1", n)
	}

	h.remote.failWith("CreateObjective:o1", errBoom)
	var item *ItemError
	if err := h.sync.UploadObjective(context.Background(), o); !errors.As(err, &item) || item.ID != "o1" {
		t.Fatalf("UploadObjective err = %v", err)
	}

	h.session.Clear()
	h.remote.resetCalls()
	if err := h.sync.UploadObjective(context.Background(), o); err != nil {
		t.Fatalf("UploadObjective without session: %v", err)
	}
	if n := h.sync.UploadTasks(context.Background(), []model.Task{t2}); n != 0 {
		t.Fatalf("UploadTasks without session = %d", n)
	}
	if calls := h.remote.Calls(); len(calls) != 0 {
		t.Fatalf("calls without session: %v", calls)
	}
}
