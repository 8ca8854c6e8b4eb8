package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"telofy/internal/model"
	"telofy/internal/store"
)

// ReminderService builds human-readable summaries and daily snapshots.
type ReminderService struct {
	objectives *store.ObjectiveStore
	tasks      *store.TaskStore
	schedule   *store.ScheduleStore
	settings   *store.SettingsStore
	status     *StatusService
}

func NewReminderService(s *store.Stores, status *StatusService) *ReminderService {
	return &ReminderService{
		objectives: s.Objectives,
		tasks:      s.Tasks,
		schedule:   s.Schedule,
		settings:   s.Settings,
		status:     status,
	}
}

func (s *ReminderService) DailySummary(now time.Time) string {
	now = now.In(s.settings.Location())
	tasks := s.tasks.ByDate(now)
	sortByStart(tasks)

	var done int
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			done++
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 Daily report\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("Mon, 02 Jan 2006")))
	if o, ok := s.objectives.Active(); ok {
		builder.WriteString(fmt.Sprintf("🎯 %s\n", strings.TrimSpace(o.Name)))
	}
	builder.WriteString(fmt.Sprintf("%s Status: %s\n\n", statusIcon(s.status.CurrentStatus()), s.status.CurrentStatus()))

	builder.WriteString(fmt.Sprintf("🔥 Today's tasks (%d/%d done)\n", done, len(tasks)))
	if len(tasks) == 0 {
		builder.WriteString("- nothing scheduled\n")
	} else {
		for _, task := range tasks {
			builder.WriteString(formatTask(task, now))
		}
	}

	open := s.status.Unresolved()
	builder.WriteString("\n⚠️ Open deviations\n")
	if len(open) == 0 {
		builder.WriteString("- none\n")
	} else {
		titles := make(map[string]string)
		for _, t := range s.tasks.List() {
			titles[t.ID] = t.Title
		}
		for _, d := range open {
			title := titles[d.TaskID]
			if title == "" {
				title = d.TaskID
			}
			builder.WriteString(fmt.Sprintf("- %s: %s (id %s, since %s)\n",
				d.Type, strings.TrimSpace(title), d.ID, d.DetectedAt.In(now.Location()).Format("15:04")))
		}
	}

	blocks := s.schedule.ForWeekday(now.Weekday())
	builder.WriteString("\n🕒 Schedule\n")
	if len(blocks) == 0 {
		builder.WriteString("- no time blocks\n")
	} else {
		for _, b := range blocks {
			builder.WriteString(fmt.Sprintf("- %s-%s %s\n", b.StartTime, b.EndTime, b.Type))
		}
	}

	return strings.TrimSpace(builder.String())
}

// SnapshotDay records one DailyStatus per objective for now's date. Objectives
// already snapshotted for that date are skipped. It returns what was added.
func (s *ReminderService) SnapshotDay(now time.Time) []model.DailyStatus {
	now = now.In(s.settings.Location())
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	current := s.status.CurrentStatus()
	deviations := s.status.Deviations()

	var added []model.DailyStatus
	for _, o := range s.objectives.List() {
		if _, ok := s.status.DailyStatus(date, o.ID); ok {
			continue
		}
		tasks := s.tasks.ByObjective(o.ID)
		taskIDs := make(map[string]bool)
		ds := model.DailyStatus{
			Date:        date,
			ObjectiveID: o.ID,
			Status:      current,
			Deviations:  []model.Deviation{},
		}
		if o.IsPaused {
			ds.Status = model.StatusPaused
		}
		for _, t := range tasks {
			if !t.ScheduledOn(now) {
				continue
			}
			taskIDs[t.ID] = true
			ds.TotalTasks++
			if t.Status == model.TaskCompleted {
				ds.CompletedTasks++
			}
		}
		for _, d := range deviations {
			if taskIDs[d.TaskID] {
				ds.Deviations = append(ds.Deviations, d)
			}
		}
		s.status.AddDailyStatus(ds)
		added = append(added, ds)
	}
	return added
}

// ShouldNotify reports whether notifications are enabled and now is outside
// the configured quiet hours. Quiet hours may wrap past midnight.
func (s *ReminderService) ShouldNotify(now time.Time) bool {
	pref := s.settings.Get().NotificationPreference
	if !pref.Enabled {
		return false
	}
	start, err1 := time.Parse("15:04", pref.QuietHoursStart)
	end, err2 := time.Parse("15:04", pref.QuietHoursEnd)
	if err1 != nil || err2 != nil {
		return true
	}
	now = now.In(s.settings.Location())
	minute := now.Hour()*60 + now.Minute()
	from := start.Hour()*60 + start.Minute()
	to := end.Hour()*60 + end.Minute()

	var quiet bool
	switch {
	case from == to:
		quiet = false
	case from < to:
		quiet = minute >= from && minute < to
	default:
		quiet = minute >= from || minute < to
	}
	return !quiet
}

func sortByStart(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ScheduledAt.Before(tasks[j].ScheduledAt)
	})
}

func statusIcon(status model.ObjectiveStatus) string {
	switch status {
	case model.StatusOnTrack:
		return "🟢"
	case model.StatusDeviationDetected:
		return "🔴"
	case model.StatusRecalibrating:
		return "🟡"
	case model.StatusPaused:
		return "⏸"
	}
	return "⚪"
}

func formatTask(task model.Task, now time.Time) string {
	icon := "🟢"
	switch task.Status {
	case model.TaskCompleted:
		icon = "✅"
	case model.TaskSkipped:
		icon = "⏭"
	case model.TaskOverdue:
		icon = "⚠️"
	case model.TaskInProgress:
		icon = "⏳"
	}

	var sb strings.Builder
	start := task.ScheduledAt.In(now.Location())
	sb.WriteString(fmt.Sprintf("%s %s %s (%d min)", icon, start.Format("15:04"), strings.TrimSpace(task.Title), task.DurationMinutes))
	sb.WriteString(fmt.Sprintf("\n   id %s", task.ID))
	if task.WhyItMatters != "" {
		sb.WriteString(fmt.Sprintf("\n   💡 %s", strings.TrimSpace(task.WhyItMatters)))
	}
	if task.SkippedReason != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", strings.TrimSpace(task.SkippedReason)))
	}
	sb.WriteByte('\n')
	return sb.String()
}
