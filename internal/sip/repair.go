package sip

import (
	"fmt"
	"strconv"
)

// Bounds outside which a stored goal is treated as corrupt.
const (
	MaxPlausibleGoal = 10000
	MinPlausibleGoal = 500
)

// GoalRepair is one corrupt snapshot goal and its replacement.
type GoalRepair struct {
	UserID  string
	Date    string
	OldGoal int64
	NewGoal int64
}

// RepairReport summarizes a RepairGoals run.
type RepairReport struct {
	Checked int
	Repairs []GoalRepair
	Applied int
	DryRun  bool
}

// RepairedGoal returns the replacement for a corrupt goal and whether goal was corrupt.
// Goals above MaxPlausibleGoal whose digits start with a repeated four-digit group
// (15001500) were produced by concatenating two valid goals and recover to that group.
// Any other goal out of bounds resets to DefaultGoal.
func RepairedGoal(goal int64) (int64, bool) {
	switch {
	case goal > MaxPlausibleGoal:
		digits := strconv.FormatInt(goal, 10)
		if len(digits) >= 8 && digits[:4] == digits[4:8] {
			recovered, err := strconv.ParseInt(digits[:4], 10, 64)
			if err == nil {
				return recovered, true
			}
		}
		return DefaultGoal, true
	case goal < MinPlausibleGoal:
		return DefaultGoal, true
	default:
		return goal, false
	}
}

// RepairGoals scans every snapshot for corrupt goals. With dryRun it only reports;
// otherwise each repair is written back through the snapshot store so goal_met is
// derived again. It is a maintenance tool and is never run on the request path.
func (s *SipService) RepairGoals(dryRun bool) (*RepairReport, error) {
	snapshots, err := s.database.ListAllSnapshots()
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	report := &RepairReport{Checked: len(snapshots), DryRun: dryRun}
	for _, snap := range snapshots {
		newGoal, corrupt := RepairedGoal(snap.GoalForDay)
		if !corrupt {
			continue
		}
		repair := GoalRepair{UserID: snap.UserID, Date: snap.Date, OldGoal: snap.GoalForDay, NewGoal: newGoal}
		report.Repairs = append(report.Repairs, repair)
		s.logger.Info("corrupt goal found", "user", snap.UserID, "date", snap.Date, "old", snap.GoalForDay, "new", newGoal)

		if dryRun {
			continue
		}
		if _, err := s.database.UpsertSnapshot(snap.UserID, snap.Date, newGoal, snap.TotalIntake); err != nil {
			return report, fmt.Errorf("repairing %s on %s: %w", snap.UserID, snap.Date, err)
		}
		report.Applied++
	}

	s.logger.Info("goal repair complete", "checked", report.Checked, "found", len(report.Repairs), "applied", report.Applied, "dry_run", dryRun)
	return report, nil
}
