package model

// NotificationPreference configures reminders.
type NotificationPreference struct {
	Enabled         bool   `json:"enabled"`
	AdvanceMinutes  int    `json:"advanceMinutes"` // how many minutes before a task
	Escalation      bool   `json:"escalation"`     // send a follow-up if missed
	QuietHoursStart string `json:"quietHoursStart,omitempty"`
	QuietHoursEnd   string `json:"quietHoursEnd,omitempty"`
}

// Settings holds app-wide preferences.
type Settings struct {
	NotificationPreference NotificationPreference `json:"notificationPreference"`
	Timezone               string                 `json:"timezone"`
	OnboardingCompleted    bool                   `json:"onboardingCompleted"`
}

// DefaultSettings mirrors a fresh install.
func DefaultSettings() Settings {
	return Settings{
		NotificationPreference: NotificationPreference{
			Enabled:        true,
			AdvanceMinutes: 5,
			Escalation:     true,
		},
		Timezone: "Local",
	}
}
