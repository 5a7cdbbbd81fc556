package sip

import (
	"fmt"
	"math"
)

// Windows used by GetStats.
const (
	DefaultStatsDays = 30
	weekDays         = 7
	monthDays        = 30
)

// StatsRequest selects the window and boundaries of a stats query.
type StatsRequest struct {
	UserID string
	// WindowDays is the number of daily totals returned. Non-positive means
	// DefaultStatsDays; values above MaxStreakDays are capped.
	WindowDays int
	// Today is the caller's logical today. Empty means the server's date.
	Today string
	// Goal is used for backfilled snapshots. Non-positive means the user's default.
	Goal int64
}

// DailyTotal is the intake attributed to one logical date.
type DailyTotal struct {
	Date  string
	Total int64
}

// Stats summarizes a user's recent intake.
type Stats struct {
	// Daily holds one entry per day of the window, Daily[0] being today.
	Daily       []DailyTotal
	Streak      int
	WeekAverage int64
	WeekTotal   int64
	MonthTotal  int64
}

// GetStats backfills missing snapshots, then derives daily totals, the streak,
// and the week and month aggregates.
func (s *SipService) GetStats(req StatsRequest) (*Stats, error) {
	today, err := s.resolveToday(req.Today)
	if err != nil {
		return nil, err
	}
	window := req.WindowDays
	if window <= 0 {
		window = DefaultStatsDays
	}
	if window > MaxStreakDays {
		window = MaxStreakDays
	}
	goal, err := s.goalOrDefault(req.UserID, req.Goal)
	if err != nil {
		return nil, err
	}

	if _, err := s.Backfill(req.UserID, goal, MaxStreakDays, today); err != nil {
		return nil, fmt.Errorf("backfilling snapshots: %w", err)
	}

	span := max(window, monthDays)
	daily, err := s.dailyTotals(req.UserID, today, span)
	if err != nil {
		return nil, err
	}

	history, err := s.database.ListSnapshotsThrough(req.UserID, today, MaxStreakDays+1)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	streak, err := ComputeStreak(history, today)
	if err != nil {
		return nil, err
	}

	weekTotal := sumTotals(daily[:weekDays])
	return &Stats{
		Daily:       daily[:window],
		Streak:      streak,
		WeekAverage: int64(math.Round(float64(weekTotal) / weekDays)),
		WeekTotal:   weekTotal,
		MonthTotal:  sumTotals(daily[:monthDays]),
	}, nil
}

// dailyTotals returns days entries, newest first, with zero for days without intake.
func (s *SipService) dailyTotals(userID string, today string, days int) ([]DailyTotal, error) {
	dates, err := dateRange(today, days)
	if err != nil {
		return nil, err
	}
	totals, err := s.database.DailyIntakeTotals(userID, dates[len(dates)-1], today)
	if err != nil {
		return nil, fmt.Errorf("loading daily totals: %w", err)
	}

	daily := make([]DailyTotal, len(dates))
	for i, date := range dates {
		daily[i] = DailyTotal{Date: date, Total: totals[date]}
	}
	return daily, nil
}

func sumTotals(days []DailyTotal) int64 {
	var sum int64
	for _, d := range days {
		sum += d.Total
	}
	return sum
}
