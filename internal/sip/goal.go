package sip

import "fmt"

// DefaultGoal is the goal in force for a date when no snapshot says otherwise.
const DefaultGoal = 2500

// Goal adjustments applied by DailyTarget.
const (
	HotWeatherBonus = 500
	ActiveDayBonus  = 750
	RecoveryBonus   = 1000
)

// GoalFactors are the day conditions that raise a base goal.
type GoalFactors struct {
	HotWeather bool
	Active     bool
	Recovery   bool
}

// DailyTarget returns base raised by the bonus of every factor that applies.
// A non-positive base is replaced by DefaultGoal.
func DailyTarget(base int64, factors GoalFactors) int64 {
	if base <= 0 {
		base = DefaultGoal
	}
	target := base
	if factors.HotWeather {
		target += HotWeatherBonus
	}
	if factors.Active {
		target += ActiveDayBonus
	}
	if factors.Recovery {
		target += RecoveryBonus
	}
	return target
}

// ResolveGoal returns the goal in force for a user on date: the snapshot for that
// date if there is one, else the goal of the nearest earlier snapshot, else DefaultGoal.
func (s *SipService) ResolveGoal(userID string, date string) (int64, error) {
	if _, err := ParseDate(date); err != nil {
		return 0, err
	}

	exact, err := s.database.FindSnapshot(userID, date)
	if err != nil {
		return 0, fmt.Errorf("finding snapshot: %w", err)
	}
	if exact != nil {
		return exact.GoalForDay, nil
	}

	earlier, err := s.database.FindSnapshotBefore(userID, date)
	if err != nil {
		return 0, fmt.Errorf("finding earlier snapshot: %w", err)
	}
	if earlier != nil {
		return earlier.GoalForDay, nil
	}
	return DefaultGoal, nil
}

// SetDefaultGoal changes the goal used for a user when callers do not supply one.
func (s *SipService) SetDefaultGoal(userID string, goal int64) error {
	if goal <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGoal, goal)
	}
	if _, err := s.database.EnsureUser(userID); err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	if err := s.database.SetDefaultGoal(userID, goal); err != nil {
		return fmt.Errorf("setting default goal: %w", err)
	}
	s.logger.Info("default goal set", "user", userID, "goal", goal)
	return nil
}

// DefaultGoalFor returns the user's stored default goal, or DefaultGoal for unknown users.
func (s *SipService) DefaultGoalFor(userID string) (int64, error) {
	user, err := s.database.FindUser(userID)
	if err != nil {
		return 0, fmt.Errorf("finding user: %w", err)
	}
	if user == nil || user.DefaultGoal <= 0 {
		return DefaultGoal, nil
	}
	return user.DefaultGoal, nil
}

// goalOrDefault returns goal when positive, else the user's default goal.
func (s *SipService) goalOrDefault(userID string, goal int64) (int64, error) {
	if goal > 0 {
		return goal, nil
	}
	return s.DefaultGoalFor(userID)
}

// reconcileGoal picks the goal to reconcile date against after its intake changed.
// A closed day (one with a later snapshot) keeps the goal it was closed with.
func (s *SipService) reconcileGoal(userID string, date string, goal int64) (int64, error) {
	existing, err := s.database.FindSnapshot(userID, date)
	if err != nil {
		return 0, fmt.Errorf("finding snapshot: %w", err)
	}
	if existing == nil {
		return goal, nil
	}
	closed, err := s.database.HasSnapshotAfter(userID, date)
	if err != nil {
		return 0, fmt.Errorf("checking for later snapshots: %w", err)
	}
	if closed {
		return existing.GoalForDay, nil
	}
	return goal, nil
}
