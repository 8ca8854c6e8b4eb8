package model

import (
	"fmt"
	"time"
)

// TimeBlockType says what a block of the day is reserved for.
type TimeBlockType string

const (
	BlockAvailable TimeBlockType = "available"
	BlockWork      TimeBlockType = "work"
	BlockSleep     TimeBlockType = "sleep"
	BlockPersonal  TimeBlockType = "personal"
	BlockBlocked   TimeBlockType = "blocked"
)

// TimeBlock is a slot of the daily schedule, independent of objectives.
type TimeBlock struct {
	ID            string        `json:"id"`
	StartTime     string        `json:"startTime"` // HH:mm
	EndTime       string        `json:"endTime"`
	Type          TimeBlockType `json:"type"`
	IsRecurring   bool          `json:"isRecurring"`
	RecurringDays []int         `json:"recurringDays,omitempty"` // 0-6, Sunday = 0
}

func (b TimeBlock) EntityID() string { return b.ID }

func (b TimeBlock) Clone() TimeBlock {
	b.RecurringDays = cloneSlice(b.RecurringDays)
	return b
}

// Validate checks the clock strings and recurring days.
func (b TimeBlock) Validate() error {
	start, err := time.Parse("15:04", b.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time %q, expected HH:MM", b.StartTime)
	}
	end, err := time.Parse("15:04", b.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end time %q, expected HH:MM", b.EndTime)
	}
	if !end.After(start) {
		return fmt.Errorf("end time %s must be after start time %s", b.EndTime, b.StartTime)
	}
	for _, d := range b.RecurringDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("recurring day %d out of range 0-6", d)
		}
	}
	return nil
}

// OccursOn reports whether the block applies on the given weekday.
// Non-recurring blocks apply every day.
func (b TimeBlock) OccursOn(day time.Weekday) bool {
	if !b.IsRecurring || len(b.RecurringDays) == 0 {
		return true
	}
	for _, d := range b.RecurringDays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}
