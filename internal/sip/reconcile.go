package sip

import (
	"errors"
	"fmt"

	"sip-go/internal/database/sqlc"
)

// SweepReport summarizes a SweepAll pass.
type SweepReport struct {
	Users      int
	Locked     int
	Backfilled int
	Failed     int
}

// Reconcile recomputes a date's snapshot from the ledger against goal.
// Calling it twice with the same ledger state yields the same snapshot.
func (s *SipService) Reconcile(userID string, date string, goal int64) (*sqlc.DailySnapshot, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	if goal <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}

	snapshot, err := s.database.ReconcileSnapshot(userID, date, goal)
	if err != nil {
		return nil, fmt.Errorf("reconciling snapshot for %s: %w", date, err)
	}
	s.logger.Debug("snapshot reconciled", "user", userID, "date", date, "goal", goal, "total", snapshot.TotalIntake, "met", snapshot.GoalMet)
	return snapshot, nil
}

// reconcileChanged reconciles a date whose intake just changed. Open days take
// the supplied goal; closed days keep theirs.
func (s *SipService) reconcileChanged(userID string, date string, goal int64) (*sqlc.DailySnapshot, error) {
	goal, err := s.reconcileGoal(userID, date, goal)
	if err != nil {
		return nil, err
	}
	return s.Reconcile(userID, date, goal)
}

// SetGoal explicitly sets the goal for a date and re-derives its snapshot.
// Snapshots of other dates are untouched.
func (s *SipService) SetGoal(userID string, date string, goal int64) (*sqlc.DailySnapshot, error) {
	if goal <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}
	snapshot, err := s.Reconcile(userID, date, goal)
	if err != nil {
		return nil, err
	}
	s.logger.Info("goal set", "user", userID, "date", date, "goal", goal)
	return snapshot, nil
}

// LockPreviousDay makes sure the day before today has a snapshot, writing one from
// the ledger with goal when it is missing, even when nothing was logged that day.
// Returns the new snapshot, or nil when one already existed.
func (s *SipService) LockPreviousDay(userID string, goal int64, today string) (*sqlc.DailySnapshot, error) {
	today, err := s.resolveToday(today)
	if err != nil {
		return nil, err
	}
	goal, err = s.goalOrDefault(userID, goal)
	if err != nil {
		return nil, err
	}

	yesterday, err := AddDays(today, -1)
	if err != nil {
		return nil, err
	}

	existing, err := s.database.FindSnapshot(userID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	snapshot, err := s.Reconcile(userID, yesterday, goal)
	if err != nil {
		return nil, err
	}
	s.logger.Info("previous day locked", "user", userID, "date", yesterday, "total", snapshot.TotalIntake)
	return snapshot, nil
}

// Backfill writes snapshots for days in the horizon that have ledger intake but no
// snapshot. Today is skipped, as are days with zero intake: a day with nothing
// logged is left without a snapshot unless LockPreviousDay reaches it.
// Returns the number of snapshots written.
func (s *SipService) Backfill(userID string, goal int64, horizonDays int, today string) (int, error) {
	today, err := s.resolveToday(today)
	if err != nil {
		return 0, err
	}
	goal, err = s.goalOrDefault(userID, goal)
	if err != nil {
		return 0, err
	}
	if horizonDays <= 0 {
		return 0, nil
	}

	from, err := AddDays(today, -(horizonDays - 1))
	if err != nil {
		return 0, err
	}
	totals, err := s.database.DailyIntakeTotals(userID, from, today)
	if err != nil {
		return 0, fmt.Errorf("loading daily totals: %w", err)
	}

	dates, err := dateRange(today, horizonDays)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, date := range dates {
		if date == today || totals[date] == 0 {
			continue
		}
		existing, err := s.database.FindSnapshot(userID, date)
		if err != nil {
			return written, fmt.Errorf("finding snapshot: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.Reconcile(userID, date, goal); err != nil {
			return written, err
		}
		written++
	}

	if written > 0 {
		s.logger.Info("snapshots backfilled", "user", userID, "count", written)
	}
	return written, nil
}

// SweepAll locks the previous day and backfills the last MaxStreakDays days for
// every known user, each against that user's default goal. Users are independent:
// a failure for one is logged and the sweep continues.
func (s *SipService) SweepAll(today string) (*SweepReport, error) {
	today, err := s.resolveToday(today)
	if err != nil {
		return nil, err
	}

	userIDs, err := s.database.ListUserIDs()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	report := &SweepReport{Users: len(userIDs)}
	var errs []error
	for _, userID := range userIDs {
		locked, backfilled, err := s.sweepUser(userID, today)
		if err != nil {
			s.logger.Error("sweep failed", "user", userID, "error", err)
			report.Failed++
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if locked {
			report.Locked++
		}
		report.Backfilled += backfilled
	}

	s.logger.Info("sweep complete", "users", report.Users, "locked", report.Locked, "backfilled", report.Backfilled, "failed", report.Failed)
	return report, errors.Join(errs...)
}

func (s *SipService) sweepUser(userID string, today string) (bool, int, error) {
	goal, err := s.DefaultGoalFor(userID)
	if err != nil {
		return false, 0, err
	}
	locked, err := s.LockPreviousDay(userID, goal, today)
	if err != nil {
		return false, 0, err
	}
	backfilled, err := s.Backfill(userID, goal, MaxStreakDays, today)
	if err != nil {
		return locked != nil, backfilled, err
	}
	return locked != nil, backfilled, nil
}
