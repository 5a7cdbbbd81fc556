package sip

import (
	"fmt"
	"slices"
)

// ClaimResult summarizes a guest data claim.
type ClaimResult struct {
	LogsTransferred      int64
	SnapshotsTransferred int
	DatesAffected        []string
	// FailedDates lists dates whose snapshot could not be merged or reconciled.
	FailedDates []string
}

// ClaimGuestData moves a guest's ledger and snapshots to toUserID and marks the
// destination as a registered user. Where both users have a snapshot for the same
// date the totals are added and judged against the destination's goal. Dates with
// intake but no snapshot are reconciled against goal. Each date is committed on its
// own, so a failure leaves only the remaining dates stale.
func (s *SipService) ClaimGuestData(fromUserID string, toUserID string, goal int64) (*ClaimResult, error) {
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot claim data from the same user", ErrForbidden)
	}

	source, err := s.database.FindUser(fromUserID)
	if err != nil {
		return nil, fmt.Errorf("finding source user: %w", err)
	}
	if source != nil && !source.IsGuest {
		return nil, fmt.Errorf("%w: user %s is not a guest", ErrForbidden, fromUserID)
	}

	goal, err = s.goalOrDefault(toUserID, goal)
	if err != nil {
		return nil, err
	}
	if _, err := s.database.EnsureUser(toUserID); err != nil {
		return nil, fmt.Errorf("ensuring user: %w", err)
	}
	if err := s.database.MarkRegistered(toUserID); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	snapshots, err := s.database.ListSnapshots(fromUserID, 0)
	if err != nil {
		return nil, fmt.Errorf("listing guest snapshots: %w", err)
	}

	count, ledgerDates, err := s.database.TransferIntake(fromUserID, toUserID)
	if err != nil {
		return nil, fmt.Errorf("transferring intake: %w", err)
	}

	result := &ClaimResult{LogsTransferred: count}
	affected := make(map[string]struct{})
	merged := make(map[string]struct{})

	for _, snap := range snapshots {
		affected[snap.Date] = struct{}{}
		if _, err := s.database.MergeSnapshot(fromUserID, toUserID, snap.Date); err != nil {
			s.logger.Error("snapshot merge failed", "from", fromUserID, "to", toUserID, "date", snap.Date, "error", err)
			result.FailedDates = append(result.FailedDates, snap.Date)
			continue
		}
		merged[snap.Date] = struct{}{}
		result.SnapshotsTransferred++
	}

	var pending []string
	for _, date := range ledgerDates {
		affected[date] = struct{}{}
		if _, ok := merged[date]; !ok {
			pending = append(pending, date)
		}
	}
	result.FailedDates = append(result.FailedDates, s.reconcileTouched(toUserID, pending, goal)...)

	for date := range affected {
		result.DatesAffected = append(result.DatesAffected, date)
	}
	slices.Sort(result.DatesAffected)
	slices.Sort(result.FailedDates)
	result.FailedDates = slices.Compact(result.FailedDates)

	s.logger.Info("guest data claimed", "from", fromUserID, "to", toUserID,
		"logs", result.LogsTransferred, "snapshots", result.SnapshotsTransferred, "dates", len(result.DatesAffected))
	return result, nil
}
