package store

import (
	"context"
	"time"

	"telofy/internal/model"
)

// NotificationPatch is a field-level update of the notification preference.
type NotificationPatch struct {
	Enabled         *bool
	AdvanceMinutes  *int
	Escalation      *bool
	QuietHoursStart *string
	QuietHoursEnd   *string
}

// SettingsStore keeps app-wide preferences.
type SettingsStore struct {
	g *guarded[model.Settings]
}

// OpenSettingsStore restores settings from opts.Persistence, falling back to
// model.DefaultSettings.
func OpenSettingsStore(ctx context.Context, opts Options) (*SettingsStore, error) {
	g, err := newGuarded(ctx, KeySettings, model.DefaultSettings(), opts)
	if err != nil {
		return nil, err
	}
	return &SettingsStore{g: g}, nil
}

func (s *SettingsStore) Get() model.Settings {
	var out model.Settings
	s.g.read(func(st model.Settings) { out = st })
	return out
}

func (s *SettingsStore) UpdateNotificationPreference(p NotificationPatch) {
	s.g.write(func(st *model.Settings) bool {
		pref := st.NotificationPreference
		if p.Enabled != nil {
			pref.Enabled = *p.Enabled
		}
		if p.AdvanceMinutes != nil {
			pref.AdvanceMinutes = *p.AdvanceMinutes
		}
		if p.Escalation != nil {
			pref.Escalation = *p.Escalation
		}
		if p.QuietHoursStart != nil {
			pref.QuietHoursStart = *p.QuietHoursStart
		}
		if p.QuietHoursEnd != nil {
			pref.QuietHoursEnd = *p.QuietHoursEnd
		}
		st.NotificationPreference = pref
		return true
	})
}

func (s *SettingsStore) SetTimezone(tz string) {
	s.g.write(func(st *model.Settings) bool {
		st.Timezone = tz
		return true
	})
}

func (s *SettingsStore) CompleteOnboarding() {
	s.g.write(func(st *model.Settings) bool {
		st.OnboardingCompleted = true
		return true
	})
}

// Location resolves the configured timezone, falling back to time.Local.
func (s *SettingsStore) Location() *time.Location {
	tz := s.Get().Timezone
	if tz == "" || tz == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}
