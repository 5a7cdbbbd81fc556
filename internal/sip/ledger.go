package sip

import (
	"fmt"
	"time"

	"sip-go/internal/database/sqlc"
)

// LogIntakeRequest describes one intake to record.
type LogIntakeRequest struct {
	UserID   string
	AmountMl int64
	// Goal is the goal for the logged date. Non-positive means the user's default.
	Goal int64
	// Date attributes the intake to a past or explicit logical date. Empty means now.
	Date string
	// Today is the caller's logical today, used to lock the previous day.
	// Empty means the server's date.
	Today string
}

// LogIntakeResult is what the caller sees after logging.
type LogIntakeResult struct {
	EventID      int64
	ResolvedDate string
	TotalForDate int64
	Events       []*sqlc.IntakeEvent
	Snapshot     *sqlc.DailySnapshot
}

// DeleteIntakeResult is what the caller sees after deleting an event.
type DeleteIntakeResult struct {
	DeletedAmount int64
	LogicalDate   string
	TotalForDate  int64
	Events        []*sqlc.IntakeEvent
}

// History is one day of the ledger together with the goal that applied.
type History struct {
	Date         string
	Events       []*sqlc.IntakeEvent
	Total        int64
	ResolvedGoal int64
}

// LogIntake appends an intake event, reconciles the snapshot of its logical date,
// and locks the previous day.
func (s *SipService) LogIntake(req LogIntakeRequest) (*LogIntakeResult, error) {
	if req.AmountMl <= 0 {
		return nil, fmt.Errorf("%w: %d ml", ErrInvalidAmount, req.AmountMl)
	}

	today, err := s.resolveToday(req.Today)
	if err != nil {
		return nil, err
	}

	goal, err := s.goalOrDefault(req.UserID, req.Goal)
	if err != nil {
		return nil, err
	}

	loggedAt := s.clock.Now()
	logicalDate := FormatDate(loggedAt)
	if req.Date != "" {
		loggedAt, err = overrideTimestamp(req.Date)
		if err != nil {
			return nil, err
		}
		logicalDate = req.Date
	}

	event, err := s.database.AppendIntake(req.UserID, req.AmountMl, loggedAt.UTC(), logicalDate)
	if err != nil {
		return nil, fmt.Errorf("appending intake: %w", err)
	}
	s.logger.Info("intake logged", "user", req.UserID, "amount_ml", req.AmountMl, "date", logicalDate, "event", event.ID)

	snapshot, err := s.reconcileChanged(req.UserID, logicalDate, goal)
	if err != nil {
		return nil, err
	}

	if _, err := s.LockPreviousDay(req.UserID, goal, today); err != nil {
		return nil, err
	}

	events, err := s.database.ListIntakeForDate(req.UserID, logicalDate)
	if err != nil {
		return nil, fmt.Errorf("listing intake: %w", err)
	}

	return &LogIntakeResult{
		EventID:      event.ID,
		ResolvedDate: logicalDate,
		TotalForDate: snapshot.TotalIntake,
		Events:       events,
		Snapshot:     snapshot,
	}, nil
}

// DeleteIntake removes one of the user's intake events and reconciles its date
// against the goal in force on that date. Totals and events are reported for
// dateForTotals when given, else for the event's own date.
func (s *SipService) DeleteIntake(eventID int64, userID string, dateForTotals string) (*DeleteIntakeResult, error) {
	if dateForTotals != "" {
		if _, err := ParseDate(dateForTotals); err != nil {
			return nil, err
		}
	}

	event, err := s.database.FindIntake(eventID)
	if err != nil {
		return nil, fmt.Errorf("finding intake: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: intake event %d", ErrNotFound, eventID)
	}
	if event.UserID != userID {
		return nil, fmt.Errorf("%w: intake event %d belongs to another user", ErrForbidden, eventID)
	}

	if err := s.database.DeleteIntake(eventID); err != nil {
		return nil, fmt.Errorf("deleting intake: %w", err)
	}
	s.logger.Info("intake deleted", "user", userID, "event", eventID, "amount_ml", event.AmountMl, "date", event.LogicalDate)

	goal, err := s.ResolveGoal(userID, event.LogicalDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.Reconcile(userID, event.LogicalDate, goal); err != nil {
		return nil, err
	}

	date := dateForTotals
	if date == "" {
		date = event.LogicalDate
	}
	total, err := s.database.SumIntakeForDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("summing intake: %w", err)
	}
	events, err := s.database.ListIntakeForDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("listing intake: %w", err)
	}

	return &DeleteIntakeResult{
		DeletedAmount: event.AmountMl,
		LogicalDate:   event.LogicalDate,
		TotalForDate:  total,
		Events:        events,
	}, nil
}

// GetHistory returns a day of the ledger (the server's today when date is empty)
// and the goal that applied on it.
func (s *SipService) GetHistory(userID string, date string) (*History, error) {
	date, err := s.resolveToday(date)
	if err != nil {
		return nil, err
	}

	events, err := s.database.ListIntakeForDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("listing intake: %w", err)
	}
	total, err := s.database.SumIntakeForDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("summing intake: %w", err)
	}
	goal, err := s.ResolveGoal(userID, date)
	if err != nil {
		return nil, err
	}

	return &History{
		Date:         date,
		Events:       events,
		Total:        total,
		ResolvedGoal: goal,
	}, nil
}

// IntakeSince totals the intake a user logged at or after since.
func (s *SipService) IntakeSince(userID string, since time.Time) (int64, error) {
	total, err := s.database.SumIntakeSince(userID, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("summing intake: %w", err)
	}
	return total, nil
}
