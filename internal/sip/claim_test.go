package sip_test

import (
	"errors"
	"slices"
	"testing"

	"sip-go/internal/sip"
)

func TestSipService_ClaimGuestData(t *testing.T) {
	t.Run("merges overlapping snapshots against the destination goal", func(t *testing.T) {
		svc, db, _ := newTestService(t)

		guest, err := svc.NewGuest()
		if err != nil {
			t.Fatalf("NewGuest() error = %v", err)
		}
		logs := []sip.LogIntakeRequest{
			{UserID: guest, AmountMl: 1200, Goal: 1000, Date: "2024-01-14"},
			{UserID: guest, AmountMl: 400},
			{UserID: "alex", AmountMl: 1500, Goal: 3000, Date: "2024-01-14"},
		}
		for _, req := range logs {
			if _, err := svc.LogIntake(req); err != nil {
				t.Fatalf("LogIntake() error = %v", err)
			}
		}

		res, err := svc.ClaimGuestData(guest, "alex", 0)
		if err != nil {
			t.Fatalf("ClaimGuestData() error = %v", err)
		}
		if res.LogsTransferred != 2 || res.SnapshotsTransferred != 2 {
			t.Errorf("ClaimGuestData() = %+v, want 2 logs and 2 snapshots", res)
		}
		if !slices.Equal(res.DatesAffected, []string{"2024-01-14", "2024-01-15"}) {
			t.Errorf("DatesAffected = %v", res.DatesAffected)
		}

		merged, _ := db.FindSnapshot("alex", "2024-01-14")
		if merged.TotalIntake != 2700 || merged.GoalForDay != 3000 || merged.GoalMet {
			t.Errorf("merged snapshot = %+v, want total 2700 goal 3000 unmet", merged)
		}
		moved, _ := db.FindSnapshot("alex", "2024-01-15")
		if moved == nil || moved.TotalIntake != 400 {
			t.Errorf("moved snapshot = %+v, want total 400", moved)
		}

		// Snapshots agree with the merged ledger.
		total, _ := db.SumIntakeForDate("alex", "2024-01-14")
		if total != merged.TotalIntake {
			t.Errorf("ledger total = %d, snapshot total = %d", total, merged.TotalIntake)
		}
		if left, _ := db.ListSnapshots(guest, 0); len(left) != 0 {
			t.Errorf("guest still has %d snapshots", len(left))
		}

		user, _ := db.FindUser("alex")
		if user.IsGuest {
			t.Error("destination is still a guest after claiming")
		}
	})

	t.Run("reconciles ledger dates without a snapshot", func(t *testing.T) {
		svc, db, _ := newTestService(t)

		guest, _ := svc.NewGuest()
		if _, err := svc.BulkImport(guest, []sip.ImportEntry{{AmountMl: 900, Timestamp: "2024-01-09T10:00:00Z"}}, 0); err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		// Drop the guest's snapshot so only the ledger carries the date.
		if _, err := db.MergeSnapshot(guest, "scratch", "2024-01-09"); err != nil {
			t.Fatalf("MergeSnapshot() error = %v", err)
		}

		res, err := svc.ClaimGuestData(guest, "alex", 800)
		if err != nil {
			t.Fatalf("ClaimGuestData() error = %v", err)
		}
		if res.LogsTransferred != 1 || res.SnapshotsTransferred != 0 {
			t.Errorf("ClaimGuestData() = %+v", res)
		}
		snap, _ := db.FindSnapshot("alex", "2024-01-09")
		if snap == nil || snap.TotalIntake != 900 || snap.GoalForDay != 800 || !snap.GoalMet {
			t.Errorf("reconciled snapshot = %+v, want total 900 goal 800 met", snap)
		}
	})

	t.Run("refuses to claim from a registered user", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		guest, _ := svc.NewGuest()
		if _, err := svc.ClaimGuestData(guest, "alex", 0); err != nil {
			t.Fatalf("ClaimGuestData() error = %v", err)
		}

		_, err := svc.ClaimGuestData("alex", "sam", 0)
		if !errors.Is(err, sip.ErrForbidden) {
			t.Errorf("ClaimGuestData(registered) error = %v, want ErrForbidden", err)
		}
	})

	t.Run("refuses to claim into the same user", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.ClaimGuestData("guest_x", "guest_x", 0)
		if !errors.Is(err, sip.ErrForbidden) {
			t.Errorf("ClaimGuestData(same) error = %v, want ErrForbidden", err)
		}
	})
}
