package repository

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"telofy/internal/model"
	"telofy/internal/store"
)

func newTestRepo(t *testing.T) *BlobRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "telofy.db"), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewBlobRepository(db)
}

func TestBlobRepositoryLoadMissing(t *testing.T) {
	repo := newTestRepo(t)
	data, err := repo.Load(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data != nil {
		t.Fatalf("Load of a missing key = %q, want nil", data)
	}
}

func TestBlobRepositorySaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.Save(ctx, "tasks", []byte(`{"tasks":[]}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, "tasks", []byte(`{"tasks":[{"id":"t1"}]}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if err := repo.Save(ctx, "objectives", []byte(`{}`)); err != nil {
		t.Fatalf("Save objectives: %v", err)
	}

	data, err := repo.Load(ctx, "tasks")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"tasks":[{"id":"t1"}]}` {
		t.Fatalf("Load = %s", data)
	}

	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "objectives" || keys[1] != "tasks" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestStoresSurviveReopenOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "telofy.db")
	quiet := log.New(io.Discard, "", 0)

	open := func() (*store.Stores, func()) {
		db, err := NewDB(path, quiet)
		if err != nil {
			t.Fatalf("NewDB: %v", err)
		}
		stores, err := store.OpenAll(ctx, store.Options{Persistence: NewBlobRepository(db), Logger: quiet})
		if err != nil {
			t.Fatalf("OpenAll: %v", err)
		}
		return stores, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}

	stores, closeDB := open()
	at := time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)
	stores.Objectives.Add(model.Objective{ID: "o1", Name: "Run a marathon", Category: model.CategoryFitness})
	stores.Tasks.Add(model.Task{ID: "t1", ObjectiveID: "o1", Title: "Easy run", ScheduledAt: at, DurationMinutes: 45, Status: model.TaskPending})
	stores.Tasks.Complete("t1", at.Add(time.Hour))
	closeDB()

	reopened, closeDB := open()
	defer closeDB()
	task, ok := reopened.Tasks.Get("t1")
	if !ok {
		t.Fatalf("task not restored")
	}
	if task.Status != model.TaskCompleted || task.CompletedAt == nil || !task.CompletedAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("restored task = %+v", task)
	}
	if o, ok := reopened.Objectives.Active(); !ok || o.ID != "o1" {
		t.Fatalf("active objective not restored")
	}
}

func TestIsMemoryDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{":memory:", true},
		{"file::memory:?cache=shared", true},
		{"file:test.db?mode=memory", true},
		{"telofy.db", false},
		{"/var/lib/telofy/telofy.db", false},
	}
	for _, tt := range tests {
		if got := isMemoryDSN(tt.dsn); got != tt.want {
			t.Errorf("isMemoryDSN(%q) = %v, want %v", tt.dsn, got, tt.want)
		}
	}
}

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		dsn    string
		want   string
		wantOK bool
	}{
		{"telofy.db", "telofy.db", true},
		{"file:data/telofy.db?_busy_timeout=5000", "data/telofy.db", true},
		{":memory:", "", false},
		{"file:x?mode=memory", "", false},
		{"file:?cache=shared", "", false},
	}
	for _, tt := range tests {
		got, ok := sqlitePath(tt.dsn)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("sqlitePath(%q) = %q, %v, want %q, %v", tt.dsn, got, ok, tt.want, tt.wantOK)
		}
	}
}
