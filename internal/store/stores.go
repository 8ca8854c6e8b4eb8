package store

import "context"

// Stores bundles every local store behind one persistence adapter.
type Stores struct {
	Objectives *ObjectiveStore
	Tasks      *TaskStore
	Schedule   *ScheduleStore
	Status     *StatusStore
	Settings   *SettingsStore
}

// OpenAll opens every store with the same options.
func OpenAll(ctx context.Context, opts Options) (*Stores, error) {
	objectives, err := OpenObjectiveStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	tasks, err := OpenTaskStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	schedule, err := OpenScheduleStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	status, err := OpenStatusStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	settings, err := OpenSettingsStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Objectives: objectives,
		Tasks:      tasks,
		Schedule:   schedule,
		Status:     status,
		Settings:   settings,
	}, nil
}
