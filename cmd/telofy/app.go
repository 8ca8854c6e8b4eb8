package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"telofy/internal/auth"
	"telofy/internal/config"
	"telofy/internal/remote"
	"telofy/internal/repository"
	"telofy/internal/service"
	"telofy/internal/store"
)

// app is the composed planner: local stores over SQLite, the optional remote
// reconciler and the services on top.
type app struct {
	cfg    config.Config
	out    io.Writer
	closer io.Closer
	db     *gorm.DB

	stores     *store.Stores
	session    *auth.Session
	sync       *service.SyncService // nil when no remote is configured
	status     *service.StatusService
	tasks      *service.TaskService
	objectives *service.ObjectiveService
	reminders  *service.ReminderService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &app{cfg: cfg, out: os.Stderr}
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
		}
		a.out = io.MultiWriter(os.Stderr, rotating)
		a.closer = rotating
	}
	log.SetOutput(a.out)

	db, err := repository.NewDB(cfg.DatabaseURL, a.logger("[db] "))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("db: %w", err)
	}
	a.db = db

	stores, err := store.OpenAll(ctx, store.Options{
		Persistence: repository.NewBlobRepository(db),
		Logger:      a.logger("[store] "),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open stores: %w", err)
	}
	a.stores = stores
	a.session = auth.NewSession(cfg.APIToken)

	if cfg.RemoteEnabled() {
		client, err := remote.NewHTTPClient(remote.HTTPConfig{
			BaseURL:        cfg.APIBaseURL,
			Tokens:         a.session,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("remote: %w", err)
		}
		a.sync = service.NewSyncService(service.SyncConfig{
			Remote:     client,
			Auth:       a.session,
			Objectives: stores.Objectives,
			Tasks:      stores.Tasks,
			Logger:     a.logger("[sync] "),
			Location:   stores.Settings.Location(),
		})
	}

	a.status = service.NewStatusService(stores.Status, a.logger("[status] "), nil)
	a.tasks = service.NewTaskService(stores.Tasks, stores.Objectives, a.status, nil)
	if a.sync != nil {
		a.objectives = service.NewObjectiveService(stores.Objectives, a.status, a.sync, a.logger("[objectives] "), nil)
	} else {
		a.objectives = service.NewObjectiveService(stores.Objectives, a.status, nil, a.logger("[objectives] "), nil)
	}
	a.reminders = service.NewReminderService(stores, a.status)
	return a, nil
}

func (a *app) logger(prefix string) *log.Logger {
	return log.New(a.out, prefix, log.LstdFlags)
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}
