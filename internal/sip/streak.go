package sip

import (
	"sip-go/internal/database/sqlc"
)

// MaxStreakDays bounds the backward walk of ComputeStreak.
const MaxStreakDays = 365

// ComputeStreak returns the number of consecutive days, ending today or yesterday,
// on which the goal was met.
//
// The scan starts at today when today's goal is met, else at yesterday when that
// goal is met (today may still be in progress); otherwise the streak is 0. From the
// start it walks backward and stops at the first day that is missing or unmet.
// When a date appears more than once, a met record wins. Snapshots with unparsable
// dates are ignored. The walk stops after MaxStreakDays days.
func ComputeStreak(history []*sqlc.DailySnapshot, today string) (int, error) {
	start, err := ParseDate(today)
	if err != nil {
		return 0, err
	}

	met := make(map[string]bool, len(history))
	for _, s := range history {
		if s == nil {
			continue
		}
		if _, err := ParseDate(s.Date); err != nil {
			continue
		}
		met[s.Date] = met[s.Date] || s.GoalMet
	}

	day := start
	if !met[FormatDate(day)] {
		day = day.AddDate(0, 0, -1)
		if !met[FormatDate(day)] {
			return 0, nil
		}
	}

	streak := 0
	for streak < MaxStreakDays && met[FormatDate(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
