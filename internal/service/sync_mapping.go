package service

import (
	"fmt"
	"time"

	"telofy/internal/model"
	"telofy/internal/remote"
)

const (
	defaultDailyCommitmentMinutes = 60
	defaultPriority               = 1
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	return t, nil
}

func parseOptionalTime(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseTime(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func objectiveRequest(o model.Objective) remote.CreateObjectiveRequest {
	req := remote.CreateObjectiveRequest{
		ID:                     o.ID,
		Name:                   o.Name,
		Category:               string(o.Category),
		Description:            o.Description,
		TargetOutcome:          o.TargetOutcome,
		EndDate:                formatOptionalTime(o.Timeframe.EndDate),
		DailyCommitmentMinutes: o.Timeframe.DailyCommitmentMinutes,
		Pillars:                make([]remote.PillarPayload, 0, len(o.Pillars)),
		Metrics:                make([]remote.MetricPayload, 0, len(o.Metrics)),
		Rituals:                make([]remote.RitualPayload, 0, len(o.Rituals)),
	}
	for _, p := range o.Pillars {
		req.Pillars = append(req.Pillars, remote.PillarPayload{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Weight:      p.Weight,
			Progress:    p.Progress,
		})
	}
	for _, m := range o.Metrics {
		req.Metrics = append(req.Metrics, remote.MetricPayload{
			ID:              m.ID,
			Name:            m.Name,
			Unit:            m.Unit,
			Type:            m.Type,
			Target:          m.Target,
			TargetDirection: m.TargetDirection,
			Current:         m.Current,
			Source:          m.Source,
			PillarID:        m.PillarID,
		})
	}
	for _, r := range o.Rituals {
		req.Rituals = append(req.Rituals, remote.RitualPayload{
			ID:               r.ID,
			Name:             r.Name,
			Description:      r.Description,
			Frequency:        r.Frequency,
			DaysOfWeek:       r.DaysOfWeek,
			TimesPerPeriod:   r.TimesPerPeriod,
			EstimatedMinutes: r.EstimatedMinutes,
			PillarID:         r.PillarID,
		})
	}
	return req
}

// objectiveFromDetail maps the remote detail shape into a local objective,
// filling the defaults a fresh remote objective may omit.
func objectiveFromDetail(d *remote.ObjectiveDetail) (model.Objective, error) {
	if d == nil {
		return model.Objective{}, fmt.Errorf("empty objective payload")
	}
	if d.ID == "" {
		return model.Objective{}, fmt.Errorf("id is required")
	}
	if d.Name == "" {
		return model.Objective{}, fmt.Errorf("name is required")
	}
	start, err := parseTime("startDate", d.StartDate)
	if err != nil {
		return model.Objective{}, err
	}
	end, err := parseOptionalTime("endDate", d.EndDate)
	if err != nil {
		return model.Objective{}, err
	}
	created, err := parseTime("createdAt", d.CreatedAt)
	if err != nil {
		return model.Objective{}, err
	}
	updated, err := parseTime("updatedAt", d.UpdatedAt)
	if err != nil {
		return model.Objective{}, err
	}

	category := model.ObjectiveCategory(d.Category)
	if !category.Valid() {
		category = model.CategoryCustom
	}
	status := model.ObjectiveStatus(d.Status)
	if !status.Valid() {
		status = model.StatusOnTrack
	}
	minutes := d.DailyCommitmentMinutes
	if minutes <= 0 {
		minutes = defaultDailyCommitmentMinutes
	}
	priority := d.Priority
	if priority <= 0 {
		priority = defaultPriority
	}

	o := model.Objective{
		ID:            d.ID,
		Name:          d.Name,
		Category:      category,
		Description:   d.Description,
		TargetOutcome: d.TargetOutcome,
		Timeframe: model.TimeFrame{
			StartDate:              start,
			EndDate:                end,
			DailyCommitmentMinutes: minutes,
		},
		Priority:  priority,
		Pillars:   make([]model.Pillar, 0, len(d.Pillars)),
		Metrics:   make([]model.Metric, 0, len(d.Metrics)),
		Rituals:   make([]model.Ritual, 0, len(d.Rituals)),
		Status:    status,
		IsPaused:  d.IsPaused,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	for _, p := range d.Pillars {
		o.Pillars = append(o.Pillars, model.Pillar{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Weight:      p.Weight,
			Progress:    p.Progress,
		})
	}
	for _, m := range d.Metrics {
		o.Metrics = append(o.Metrics, model.Metric{
			ID:              m.ID,
			Name:            m.Name,
			Unit:            m.Unit,
			Type:            m.Type,
			Target:          m.Target,
			TargetDirection: m.TargetDirection,
			Current:         m.Current,
			History:         []model.MetricPoint{},
			Source:          m.Source,
			PillarID:        m.PillarID,
		})
	}
	for _, r := range d.Rituals {
		o.Rituals = append(o.Rituals, model.Ritual{
			ID:                r.ID,
			Name:              r.Name,
			Description:       r.Description,
			Frequency:         r.Frequency,
			DaysOfWeek:        r.DaysOfWeek,
			TimesPerPeriod:    r.TimesPerPeriod,
			CurrentStreak:     r.CurrentStreak,
			LongestStreak:     r.LongestStreak,
			CompletionHistory: []time.Time{},
			PillarID:          r.PillarID,
			EstimatedMinutes:  r.EstimatedMinutes,
		})
	}
	return o, nil
}

func taskRequest(t model.Task) remote.CreateTaskRequest {
	return remote.CreateTaskRequest{
		ID:              t.ID,
		ObjectiveID:     t.ObjectiveID,
		PillarID:        t.PillarID,
		RitualID:        t.RitualID,
		Title:           t.Title,
		Description:     t.Description,
		WhyItMatters:    t.WhyItMatters,
		ScheduledAt:     formatTime(t.ScheduledAt),
		DurationMinutes: t.DurationMinutes,
	}
}

func taskUpdateRequest(t model.Task) remote.UpdateTaskRequest {
	return remote.UpdateTaskRequest{
		Status:        string(t.Status),
		CompletedAt:   formatOptionalTime(t.CompletedAt),
		SkippedReason: t.SkippedReason,
	}
}

func taskFromSummary(r remote.TaskSummary) (model.Task, error) {
	if r.ID == "" {
		return model.Task{}, fmt.Errorf("id is required")
	}
	if r.ObjectiveID == "" {
		return model.Task{}, fmt.Errorf("objectiveId is required")
	}
	status := model.TaskStatus(r.Status)
	if !status.Valid() {
		return model.Task{}, fmt.Errorf("unknown status %q", r.Status)
	}
	scheduled, err := parseTime("scheduledAt", r.ScheduledAt)
	if err != nil {
		return model.Task{}, err
	}
	completed, err := parseOptionalTime("completedAt", r.CompletedAt)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:              r.ID,
		ObjectiveID:     r.ObjectiveID,
		PillarID:        r.PillarID,
		RitualID:        r.RitualID,
		Title:           r.Title,
		Description:     r.Description,
		WhyItMatters:    r.WhyItMatters,
		ScheduledAt:     scheduled,
		DurationMinutes: r.DurationMinutes,
		Status:          status,
		CompletedAt:     completed,
		SkippedReason:   r.SkippedReason,
	}, nil
}

// statusDiffers reports whether any locally owned status field disagrees with
// the remote copy. An unparseable remote completedAt counts as different.
func statusDiffers(local model.Task, r remote.TaskSummary) bool {
	if string(local.Status) != r.Status || local.SkippedReason != r.SkippedReason {
		return true
	}
	remoteCompleted, err := parseOptionalTime("completedAt", r.CompletedAt)
	if err != nil {
		return true
	}
	switch {
	case local.CompletedAt == nil && remoteCompleted == nil:
		return false
	case local.CompletedAt == nil || remoteCompleted == nil:
		return true
	default:
		return !local.CompletedAt.Equal(*remoteCompleted)
	}
}
