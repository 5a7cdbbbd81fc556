package sip

import (
	"fmt"
	"slices"
	"time"
)

// ImportEntry is one intake record from an external export.
type ImportEntry struct {
	AmountMl int64
	// Timestamp is an RFC 3339 or zone-less instant. Ignored when Date is set.
	Timestamp string
	// Date attributes the entry to a logical date, as for LogIntakeRequest.Date.
	Date string
}

// SkippedEntry records why an entry was not imported.
type SkippedEntry struct {
	Index  int
	Reason string
}

// ImportResult summarizes a BulkImport.
type ImportResult struct {
	Imported     int
	Duplicates   int
	Skipped      []SkippedEntry
	DatesTouched []string
	// FailedDates lists touched dates whose snapshot could not be reconciled.
	// They heal on the next reconcile or backfill.
	FailedDates []string
}

// BulkImport records entries for a user, skipping malformed ones and any that
// exactly match an existing event (same amount and timestamp). Every touched date
// is then reconciled on its own: against its existing goal when it has a snapshot,
// else against goal. A storage failure while recording stops the import after the
// dates touched so far are reconciled.
func (s *SipService) BulkImport(userID string, entries []ImportEntry, goal int64) (*ImportResult, error) {
	goal, err := s.goalOrDefault(userID, goal)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	touched := make(map[string]struct{})

	var importErr error
	for i, entry := range entries {
		loggedAt, logicalDate, err := entryInstant(entry)
		if err != nil {
			s.logger.Warn("import entry skipped", "user", userID, "index", i, "error", err)
			result.Skipped = append(result.Skipped, SkippedEntry{Index: i, Reason: err.Error()})
			continue
		}

		inserted, err := s.database.ImportIntake(userID, entry.AmountMl, loggedAt, logicalDate)
		if err != nil {
			importErr = fmt.Errorf("importing entry %d: %w", i, err)
			break
		}
		if !inserted {
			result.Duplicates++
			continue
		}
		result.Imported++
		touched[logicalDate] = struct{}{}
	}

	for date := range touched {
		result.DatesTouched = append(result.DatesTouched, date)
	}
	slices.Sort(result.DatesTouched)

	result.FailedDates = s.reconcileTouched(userID, result.DatesTouched, goal)

	s.logger.Info("bulk import complete", "user", userID, "imported", result.Imported,
		"duplicates", result.Duplicates, "skipped", len(result.Skipped), "dates", len(result.DatesTouched))
	return result, importErr
}

// reconcileTouched reconciles each date independently and returns the dates that
// failed. A date with a snapshot keeps its goal.
func (s *SipService) reconcileTouched(userID string, dates []string, goal int64) []string {
	var failed []string
	for _, date := range dates {
		if err := s.reconcileKeepingGoal(userID, date, goal); err != nil {
			s.logger.Error("reconcile failed", "user", userID, "date", date, "error", err)
			failed = append(failed, date)
		}
	}
	return failed
}

func (s *SipService) reconcileKeepingGoal(userID string, date string, goal int64) error {
	existing, err := s.database.FindSnapshot(userID, date)
	if err != nil {
		return fmt.Errorf("finding snapshot: %w", err)
	}
	if existing != nil {
		goal = existing.GoalForDay
	}
	_, err = s.Reconcile(userID, date, goal)
	return err
}

// entryInstant validates an entry and returns its stored instant and logical date.
func entryInstant(entry ImportEntry) (time.Time, string, error) {
	if entry.AmountMl <= 0 {
		return time.Time{}, "", fmt.Errorf("%w: %d ml", ErrInvalidAmount, entry.AmountMl)
	}
	if entry.Date != "" {
		loggedAt, err := overrideTimestamp(entry.Date)
		if err != nil {
			return time.Time{}, "", err
		}
		return loggedAt, entry.Date, nil
	}
	if entry.Timestamp == "" {
		return time.Time{}, "", fmt.Errorf("%w: missing timestamp", ErrMalformedDate)
	}
	loggedAt, err := ParseTimestamp(entry.Timestamp)
	if err != nil {
		return time.Time{}, "", err
	}
	return loggedAt.UTC(), FormatDate(loggedAt), nil
}
